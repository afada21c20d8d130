package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/firiho/genlink-teams/internal/domain"
)

func (h *Handler) CreateApplication(c *gin.Context) {
	var req domain.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	app, err := h.services.ApplicationService.CreateApplication(c.Request.Context(), c.Param("id"), h.callerID(c), req)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"application": app})
}

func (h *Handler) ReviewApplication(c *gin.Context) {
	var req domain.ReviewApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	app, err := h.services.ApplicationService.ReviewApplication(c.Request.Context(), c.Param("id"), h.callerID(c), req.Decision)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"application": app})
}

func (h *Handler) ListTeamApplications(c *gin.Context) {
	apps, err := h.services.ApplicationService.ListTeamApplications(c.Request.Context(), c.Param("id"), h.callerID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"applications": apps})
}

func (h *Handler) ListUserApplications(c *gin.Context) {
	apps, err := h.services.ApplicationService.ListUserApplications(c.Request.Context(), h.callerID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"applications": apps})
}
