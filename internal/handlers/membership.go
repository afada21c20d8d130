package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetTeamMembers(c *gin.Context) {
	members, err := h.services.TeamService.GetTeamMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"members": members})
}

func (h *Handler) RemoveMember(c *gin.Context) {
	err := h.services.TeamService.RemoveMember(c.Request.Context(), c.Param("id"), h.callerID(c), c.Param("userId"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"removed": true})
}

func (h *Handler) LeaveTeam(c *gin.Context) {
	err := h.services.TeamService.LeaveTeam(c.Request.Context(), c.Param("id"), h.callerID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"left": true})
}
