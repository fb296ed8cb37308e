package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/auth"
	"github.com/nurpe/budget-service/internal/model"
)

const testSecret = "middleware-secret"

type stubLoader map[uuid.UUID][]model.Membership

func (s stubLoader) Memberships(_ context.Context, userID uuid.UUID) ([]model.Membership, error) {
	return s[userID], nil
}

func newAuthRouter(loader MembershipLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(auth.NewParser(testSecret), loader))
	router.GET("/whoami", func(c *gin.Context) {
		principal, _ := MustPrincipal(c)
		c.JSON(http.StatusOK, principal)
	})
	return router
}

func issue(t *testing.T, userID, orgID uuid.UUID) string {
	t.Helper()
	token, err := auth.NewIssuer(testSecret, time.Hour).Issue(userID, orgID)
	require.NoError(t, err)
	return token
}

func call(router *gin.Engine, token, orgHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if orgHeader != "" {
		req.Header.Set(OrganizationHeader, orgHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	router := newAuthRouter(stubLoader{})

	rec := call(router, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"kind":"unauthenticated","message":"missing bearer token"}}`, rec.Body.String())

	rec = call(router, "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := auth.NewIssuer("other-secret", time.Hour).Issue(uuid.New(), uuid.Nil)
	require.NoError(t, err)
	rec = call(router, forged, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthBuildsPrincipal(t *testing.T) {
	userID := uuid.New()
	first, second := uuid.New(), uuid.New()
	loader := stubLoader{userID: {
		{OrganizationID: first, Role: model.RoleAdmin},
		{OrganizationID: second, Role: model.RoleViewer},
	}}
	router := newAuthRouter(loader)

	tests := []struct {
		name       string
		tokenOrg   uuid.UUID
		header     string
		wantStatus int
		wantActive uuid.UUID
	}{
		{name: "token organization", tokenOrg: second, wantStatus: http.StatusOK, wantActive: second},
		{name: "no organization with several memberships", tokenOrg: uuid.Nil, wantStatus: http.StatusOK, wantActive: uuid.Nil},
		{name: "header override", tokenOrg: second, header: first.String(), wantStatus: http.StatusOK, wantActive: first},
		{name: "header for foreign organization", tokenOrg: first, header: uuid.NewString(), wantStatus: http.StatusForbidden},
		{name: "malformed header", tokenOrg: first, header: "nope", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(router, issue(t, userID, tt.tokenOrg), tt.header)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var principal model.Principal
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &principal))
			assert.Equal(t, userID, principal.UserID)
			assert.Equal(t, tt.wantActive, principal.ActiveOrganizationID)
			assert.Len(t, principal.Memberships, 2)
		})
	}
}

func TestAuthSingleMembershipBecomesActive(t *testing.T) {
	userID, orgID := uuid.New(), uuid.New()
	router := newAuthRouter(stubLoader{userID: {{OrganizationID: orgID, Role: model.RoleMember}}})

	rec := call(router, issue(t, userID, uuid.Nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var principal model.Principal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &principal))
	assert.Equal(t, orgID, principal.ActiveOrganizationID)
}
