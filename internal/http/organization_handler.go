package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/service"
)

func (h *Handler) createOrganization(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req service.CreateOrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.svc.Organizations.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"organization": org})
}

func (h *Handler) listOrganizations(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orgs, err := h.svc.Organizations.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

func (h *Handler) getOrganization(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	org, err := h.svc.Organizations.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (h *Handler) updateOrganization(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	var req service.UpdateOrganizationInput
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.svc.Organizations.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": org})
}

func (h *Handler) deleteOrganization(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	if err := h.svc.Organizations.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMembers(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	members, err := h.svc.Organizations.ListMembers(c.Request.Context(), principal, orgID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handler) addMember(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	var req service.AddMemberInput
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.svc.Organizations.AddMember(c.Request.Context(), principal, orgID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"member": member})
}

type updateMemberRequest struct {
	Role model.Role `json:"role"`
}

func (h *Handler) updateMember(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req updateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.svc.Organizations.UpdateMemberRole(c.Request.Context(), principal, orgID, userID, req.Role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (h *Handler) removeMember(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orgID, ok := uuidParam(c, "orgId")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	if err := h.svc.Organizations.RemoveMember(c.Request.Context(), principal, orgID, userID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
