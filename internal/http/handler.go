package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/budget-service/internal/http/middleware"
	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/service"
)

// Services bundles the domain services the handlers call.
type Services struct {
	Organizations *service.OrganizationService
	Catalog       *service.CatalogService
	UPAs          *service.UPAService
	Projects      *service.ProjectService
	Items         *service.ItemService
	Budgets       *service.BudgetService
	Exports       *service.ExportService
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", h.health)

	api := router.Group("/api/v1")
	api.Use(authMiddleware)
	api.GET("/me", h.me)

	orgs := api.Group("/organizations")
	orgs.POST("", h.createOrganization)
	orgs.GET("", h.listOrganizations)
	orgs.GET("/:orgId", h.getOrganization)
	orgs.PATCH("/:orgId", h.updateOrganization)
	orgs.DELETE("/:orgId", h.deleteOrganization)
	orgs.GET("/:orgId/members", h.listMembers)
	orgs.POST("/:orgId/members", h.addMember)
	orgs.PATCH("/:orgId/members/:userId", h.updateMember)
	orgs.DELETE("/:orgId/members/:userId", h.removeMember)

	components := api.Group("/components/:kind")
	components.GET("", h.listComponents)
	components.POST("", h.createComponent)
	components.GET("/:id", h.getComponent)
	components.PATCH("/:id", h.updateComponent)
	components.DELETE("/:id", h.deleteComponent)
	components.PUT("/:id/price", h.changeComponentPrice)

	upas := api.Group("/upas")
	upas.GET("", h.listUPAs)
	upas.POST("", h.createUPA)
	upas.GET("/:id", h.getUPA)
	upas.PATCH("/:id", h.updateUPA)
	upas.DELETE("/:id", h.deleteUPA)
	upas.GET("/:id/export.pdf", h.exportUPA)

	projects := api.Group("/projects")
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.GET("/:id", h.getProject)
	projects.PATCH("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.GET("/:id/viewers", h.listViewers)
	projects.POST("/:id/viewers", h.addViewer)
	projects.DELETE("/:id/viewers/:userId", h.removeViewer)
	projects.GET("/:id/budgets", h.listProjectBudgets)

	items := api.Group("/items")
	items.GET("", h.listItems)
	items.POST("", h.createItem)
	items.GET("/:id", h.getItem)
	items.PATCH("/:id", h.updateItem)
	items.DELETE("/:id", h.deleteItem)

	budgets := api.Group("/budgets")
	budgets.GET("", h.listBudgets)
	budgets.POST("", h.createBudget)
	budgets.GET("/:id", h.getBudget)
	budgets.PATCH("/:id", h.updateBudget)
	budgets.DELETE("/:id", h.deleteBudget)
	budgets.POST("/:id/items", h.addBudgetItem)
	budgets.POST("/:id/upas", h.addBudgetUPA)
	budgets.DELETE("/:id/lines/:lineId", h.removeBudgetLine)
	budgets.POST("/:id/apply", h.applyBudget)
	budgets.DELETE("/:id/projects/:projectId", h.detachBudget)
	budgets.GET("/:id/export.xlsx", h.exportBudget)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) me(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"principal": principal})
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthenticated", "missing principal")
	}
	return principal, ok
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "validation", err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrConflict):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		respondError(c, http.StatusInternalServerError, "unexpected", "internal error")
	}
}

func respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{"error": gin.H{"kind": kind, "message": message}})
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid request body: "+err.Error())
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid "+name)
		return nil, false
	}
	return &value, true
}

func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func sendFile(c *gin.Context, contentType string, result *service.ExportResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}
