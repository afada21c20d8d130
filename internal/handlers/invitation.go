package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firiho/genlink-teams/internal/domain"
)

func (h *Handler) CreateInvitation(c *gin.Context) {
	var req domain.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	inv, err := h.services.InvitationService.CreateInvitation(c.Request.Context(), c.Param("id"), h.callerID(c), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"invitation": inv})
}

func (h *Handler) RespondToInvitation(c *gin.Context) {
	var req domain.RespondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	membership, err := h.services.InvitationService.RespondToInvitation(c.Request.Context(), c.Param("id"), h.callerID(c), req.Decision)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	resp := gin.H{"decision": req.Decision}
	if membership != nil {
		resp["membership"] = membership
	}
	h.successResponse(c, http.StatusOK, resp)
}

func (h *Handler) ListUserInvitations(c *gin.Context) {
	invitations, err := h.services.InvitationService.ListUserInvitations(c.Request.Context(), h.callerID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"invitations": invitations})
}
