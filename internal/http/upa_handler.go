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

// upaLineRequest mirrors componentRequest: labor lines carry "role".
// A submitted total_price is not read; totals are computed server-side.
type upaLineRequest struct {
	ComponentID *uuid.UUID      `json:"component_id"`
	Name        *string         `json:"name"`
	Role        *string         `json:"role"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type upaRequest struct {
	Title                 *string           `json:"title"`
	Code                  *string           `json:"code"`
	Unit                  *string           `json:"unit"`
	HasAnnualMaintenance  *bool             `json:"has_annual_maintenance"`
	MaintenanceYears      *int              `json:"maintenance_years"`
	AnnualMaintenanceRate *decimal.Decimal  `json:"annual_maintenance_rate"`
	IsPublic              *bool             `json:"is_public"`
	Materials             *[]upaLineRequest `json:"materials"`
	Labor                 *[]upaLineRequest `json:"labor"`
	Equipment             *[]upaLineRequest `json:"equipment"`
}

func toLineInputs(kind model.ComponentKind, lines *[]upaLineRequest) (*[]service.UPALineInput, error) {
	if lines == nil {
		return nil, nil
	}
	inputs := make([]service.UPALineInput, 0, len(*lines))
	for i, line := range *lines {
		label := line.Name
		other := line.Role
		field := "role"
		if kind == model.ComponentKindLabor {
			label, other, field = line.Role, line.Name, "name"
		}
		if other != nil {
			return nil, fmt.Errorf("%s line %d: unexpected field %s", kind, i+1, field)
		}
		input := service.UPALineInput{
			ComponentID: line.ComponentID,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			UnitPrice:   line.UnitPrice,
		}
		if label != nil {
			input.Name = *label
		}
		inputs = append(inputs, input)
	}
	return &inputs, nil
}

func (r upaRequest) lineInputs() (materials, labor, equipment *[]service.UPALineInput, err error) {
	if materials, err = toLineInputs(model.ComponentKindMaterial, r.Materials); err != nil {
		return nil, nil, nil, err
	}
	if labor, err = toLineInputs(model.ComponentKindLabor, r.Labor); err != nil {
		return nil, nil, nil, err
	}
	if equipment, err = toLineInputs(model.ComponentKindEquipment, r.Equipment); err != nil {
		return nil, nil, nil, err
	}
	return materials, labor, equipment, nil
}

type upaHeaderResponse struct {
	ID                    uuid.UUID        `json:"id"`
	OrganizationID        uuid.UUID        `json:"organization_id"`
	Title                 string           `json:"title"`
	Code                  *string          `json:"code"`
	Unit                  string           `json:"unit"`
	TotalPrice            decimal.Decimal  `json:"total_price"`
	HasAnnualMaintenance  bool             `json:"has_annual_maintenance"`
	MaintenanceYears      *int             `json:"maintenance_years"`
	AnnualMaintenanceRate *decimal.Decimal `json:"annual_maintenance_rate"`
	IsPublic              bool             `json:"is_public"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

type upaLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ComponentID *uuid.UUID      `json:"component_id"`
	Name        string          `json:"name,omitempty"`
	Role        string          `json:"role,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type upaResponse struct {
	upaHeaderResponse
	Materials []upaLineResponse `json:"materials"`
	Labor     []upaLineResponse `json:"labor"`
	Equipment []upaLineResponse `json:"equipment"`
}

func presentUPAHeader(upa model.UnitPriceAnalysis) upaHeaderResponse {
	resp := upaHeaderResponse{
		ID:                   upa.ID,
		OrganizationID:       upa.OrganizationID,
		Title:                upa.Title,
		Code:                 upa.Code,
		Unit:                 upa.Unit,
		TotalPrice:           upa.TotalPrice,
		HasAnnualMaintenance: upa.HasAnnualMaintenance,
		MaintenanceYears:     upa.MaintenanceYears,
		IsPublic:             upa.IsPublic,
		CreatedAt:            upa.CreatedAt,
		UpdatedAt:            upa.UpdatedAt,
	}
	if upa.AnnualMaintenanceRate.Valid {
		rate := upa.AnnualMaintenanceRate.Decimal
		resp.AnnualMaintenanceRate = &rate
	}
	return resp
}

func presentUPA(upa model.UnitPriceAnalysis) upaResponse {
	return upaResponse{
		upaHeaderResponse: presentUPAHeader(upa),
		Materials:         presentLines(upa.LinesOf(model.ComponentKindMaterial)),
		Labor:             presentLines(upa.LinesOf(model.ComponentKindLabor)),
		Equipment:         presentLines(upa.LinesOf(model.ComponentKindEquipment)),
	}
}

func presentLines(lines []model.UPALine) []upaLineResponse {
	resp := make([]upaLineResponse, 0, len(lines))
	for _, line := range lines {
		item := upaLineResponse{
			ID:          line.ID,
			ComponentID: line.ComponentID,
			Quantity:    line.Quantity,
			Unit:        line.Unit,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		}
		if line.Kind == model.ComponentKindLabor {
			item.Role = line.Name
		} else {
			item.Name = line.Name
		}
		resp = append(resp, item)
	}
	return resp
}

func (h *Handler) listUPAs(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	isPublic, ok := boolQuery(c, "is_public")
	if !ok {
		return
	}

	upas, err := h.svc.UPAs.List(c.Request.Context(), principal, service.UPAFilter{
		IsPublic: isPublic,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := make([]upaHeaderResponse, 0, len(upas))
	for _, upa := range upas {
		resp = append(resp, presentUPAHeader(upa))
	}
	c.JSON(http.StatusOK, gin.H{"upas": resp})
}

func (h *Handler) createUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req upaRequest
	if !bindJSON(c, &req) {
		return
	}
	materials, labor, equipment, err := req.lineInputs()
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	input := service.CreateUPAInput{
		Code:                  req.Code,
		MaintenanceYears:      req.MaintenanceYears,
		AnnualMaintenanceRate: req.AnnualMaintenanceRate,
	}
	if req.Title != nil {
		input.Title = *req.Title
	}
	if req.Unit != nil {
		input.Unit = *req.Unit
	}
	if req.HasAnnualMaintenance != nil {
		input.HasAnnualMaintenance = *req.HasAnnualMaintenance
	}
	if req.IsPublic != nil {
		input.IsPublic = *req.IsPublic
	}
	if materials != nil {
		input.Materials = *materials
	}
	if labor != nil {
		input.Labor = *labor
	}
	if equipment != nil {
		input.Equipment = *equipment
	}

	upa, err := h.svc.UPAs.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"upa": presentUPA(*upa)})
}

func (h *Handler) getUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	upa, err := h.svc.UPAs.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upa": presentUPA(*upa)})
}

func (h *Handler) updateUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req upaRequest
	if !bindJSON(c, &req) {
		return
	}
	materials, labor, equipment, err := req.lineInputs()
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	upa, err := h.svc.UPAs.Update(c.Request.Context(), principal, id, service.UpdateUPAInput{
		Title:                 req.Title,
		Code:                  req.Code,
		Unit:                  req.Unit,
		HasAnnualMaintenance:  req.HasAnnualMaintenance,
		MaintenanceYears:      req.MaintenanceYears,
		AnnualMaintenanceRate: req.AnnualMaintenanceRate,
		IsPublic:              req.IsPublic,
		Materials:             materials,
		Labor:                 labor,
		Equipment:             equipment,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upa": presentUPA(*upa)})
}

func (h *Handler) deleteUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.UPAs.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Exports.UPACostSheet(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, "application/pdf", result)
}
