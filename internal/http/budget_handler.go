package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/budget-service/internal/service"
)

func (h *Handler) listBudgets(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	isTemplate, ok := boolQuery(c, "is_template")
	if !ok {
		return
	}
	budgets, err := h.svc.Budgets.List(c.Request.Context(), principal, service.BudgetFilter{IsTemplate: isTemplate})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

func (h *Handler) createBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req service.CreateBudgetInput
	if !bindJSON(c, &req) {
		return
	}
	budget, err := h.svc.Budgets.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

func (h *Handler) getBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	budget, err := h.svc.Budgets.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

func (h *Handler) updateBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBudgetInput
	if !bindJSON(c, &req) {
		return
	}
	budget, err := h.svc.Budgets.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

func (h *Handler) deleteBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Budgets.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addBudgetItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.AddBudgetItemInput
	if !bindJSON(c, &req) {
		return
	}
	budget, err := h.svc.Budgets.AddItem(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

func (h *Handler) addBudgetUPA(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.AddBudgetUPAInput
	if !bindJSON(c, &req) {
		return
	}
	budget, err := h.svc.Budgets.AddUPA(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

func (h *Handler) removeBudgetLine(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := uuidParam(c, "lineId")
	if !ok {
		return
	}
	budget, err := h.svc.Budgets.RemoveLine(c.Request.Context(), principal, id, lineID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// applyBudget answers 201 when a link was made and 200 when the existing
// one is returned.
func (h *Handler) applyBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.ApplyBudgetInput
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Budgets.ApplyToProject(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"association": result.Association,
		"budget":      result.Budget,
		"created":     result.Created,
	})
}

func (h *Handler) detachBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "projectId")
	if !ok {
		return
	}
	if err := h.svc.Budgets.Detach(c.Request.Context(), principal, id, projectID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	result, err := h.svc.Exports.BudgetWorkbook(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result)
}
