package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nurpe/budget-service/internal/auth"
	"github.com/nurpe/budget-service/internal/model"
)

const (
	principalKey       = "principal"
	OrganizationHeader = "X-Organization-ID"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// MembershipLoader resolves the organizations a user belongs to.
type MembershipLoader interface {
	Memberships(ctx context.Context, userID uuid.UUID) ([]model.Membership, error)
}

// Auth verifies the bearer token and stores the caller's Principal on the
// context. The X-Organization-ID header switches the active organization
// for one request.
func Auth(parser TokenParser, loader MembershipLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			Abort(c, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			Abort(c, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		userID, _ := claims.UserID()

		memberships, err := loader.Memberships(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			Abort(c, http.StatusInternalServerError, "unexpected", "internal error")
			return
		}

		principal := model.Principal{UserID: userID, Memberships: memberships}
		if active := claims.ActiveOrganization(); principal.IsMember(active) {
			principal.ActiveOrganizationID = active
		} else if len(memberships) == 1 {
			principal.ActiveOrganizationID = memberships[0].OrganizationID
		}

		if raw := strings.TrimSpace(c.GetHeader(OrganizationHeader)); raw != "" {
			orgID, err := uuid.Parse(raw)
			if err != nil {
				Abort(c, http.StatusBadRequest, "validation", "invalid "+OrganizationHeader+" header")
				return
			}
			if !principal.IsMember(orgID) {
				Abort(c, http.StatusForbidden, "forbidden", "not a member of the requested organization")
				return
			}
			principal = principal.WithActiveOrganization(orgID)
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}

// Abort stops the chain with the standard error envelope.
func Abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}
