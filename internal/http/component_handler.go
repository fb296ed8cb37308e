package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/service"
)

// componentRequest is the wire shape of a catalog entry. Labor entries name
// the worker role in "role"; the other kinds use "name".
type componentRequest struct {
	Code        *string          `json:"code"`
	Name        *string          `json:"name"`
	Role        *string          `json:"role"`
	Description *string          `json:"description"`
	Unit        *string          `json:"unit"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	IsPublic    *bool            `json:"is_public"`
}

// label resolves the kind-specific display field into one value.
func (r componentRequest) label(kind model.ComponentKind) (*string, error) {
	if kind == model.ComponentKindLabor {
		if r.Name != nil {
			return nil, fmt.Errorf("labor entries take role, not name")
		}
		return r.Role, nil
	}
	if r.Role != nil {
		return nil, fmt.Errorf("%s entries take name, not role", kind)
	}
	return r.Name, nil
}

type componentResponse struct {
	ID             uuid.UUID           `json:"id"`
	Kind           model.ComponentKind `json:"kind"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	Code           *string             `json:"code"`
	Name           string              `json:"name,omitempty"`
	Role           string              `json:"role,omitempty"`
	Description    *string             `json:"description"`
	Unit           string              `json:"unit"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	IsPublic       bool                `json:"is_public"`
	UsageCount     int64               `json:"usage_count"`
	InUse          bool                `json:"in_use"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func presentComponent(c model.CatalogComponent) componentResponse {
	resp := componentResponse{
		ID:             c.ID,
		Kind:           c.Kind,
		OrganizationID: c.OrganizationID,
		Code:           c.Code,
		Description:    c.Description,
		Unit:           c.Unit,
		UnitPrice:      c.UnitPrice,
		IsPublic:       c.IsPublic,
		UsageCount:     c.UsageCount,
		InUse:          c.InUse,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.Kind == model.ComponentKindLabor {
		resp.Role = c.Name
	} else {
		resp.Name = c.Name
	}
	return resp
}

func componentKind(c *gin.Context) (model.ComponentKind, bool) {
	kind, ok := model.ParseComponentKind(c.Param("kind"))
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", "unknown component kind")
	}
	return kind, ok
}

func (h *Handler) listComponents(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	isPublic, ok := boolQuery(c, "is_public")
	if !ok {
		return
	}

	components, err := h.svc.Catalog.List(c.Request.Context(), principal, kind, service.ComponentFilter{
		IsPublic: isPublic,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := make([]componentResponse, 0, len(components))
	for _, component := range components {
		resp = append(resp, presentComponent(component))
	}
	c.JSON(http.StatusOK, gin.H{"components": resp})
}

func (h *Handler) createComponent(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	var req componentRequest
	if !bindJSON(c, &req) {
		return
	}
	label, err := req.label(kind)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	input := service.ComponentInput{
		Code:        req.Code,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
	}
	if label != nil {
		input.Name = *label
	}
	if req.Unit != nil {
		input.Unit = *req.Unit
	}
	if req.IsPublic != nil {
		input.IsPublic = *req.IsPublic
	}

	component, err := h.svc.Catalog.Create(c.Request.Context(), principal, kind, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"component": presentComponent(*component)})
}

func (h *Handler) getComponent(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	component, err := h.svc.Catalog.Get(c.Request.Context(), principal, kind, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"component": presentComponent(*component)})
}

func (h *Handler) updateComponent(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req componentRequest
	if !bindJSON(c, &req) {
		return
	}
	label, err := req.label(kind)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	result, err := h.svc.Catalog.Update(c.Request.Context(), principal, kind, id, service.ComponentPatch{
		Code:        req.Code,
		Name:        label,
		Description: req.Description,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"component":   presentComponent(result.Component),
		"propagation": result.Propagation,
	})
}

type changePriceRequest struct {
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

func (h *Handler) changeComponentPrice(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req changePriceRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UnitPrice == nil {
		respondError(c, http.StatusBadRequest, "validation", "unit_price is required")
		return
	}

	result, err := h.svc.Catalog.ChangePrice(c.Request.Context(), principal, kind, id, *req.UnitPrice)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"component":   presentComponent(result.Component),
		"propagation": result.Propagation,
	})
}

func (h *Handler) deleteComponent(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	kind, ok := componentKind(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.Delete(c.Request.Context(), principal, kind, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
