package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/budget-service/internal/service"
)

func (h *Handler) listItems(c *gin.Context) {
	orgID, ok := uuidQuery(c, "organization_id")
	if !ok {
		return
	}
	items, err := h.svc.Items.List(c.Request.Context(), service.ItemFilter{
		OrganizationID: orgID,
		Search:         c.Query("search"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) createItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req service.CreateItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Items.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) getItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Items.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) updateItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateItemInput
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Items.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) deleteItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Items.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
