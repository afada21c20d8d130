package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/firiho/genlink-teams/internal/domain"
)

func (h *Handler) CreateTeam(c *gin.Context) {
	var req domain.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	callerID := h.callerID(c)
	team, err := h.services.TeamService.CreateTeam(c.Request.Context(), callerID, req)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	// Initial invitees go through the normal invitation flow; a failed
	// invite never fails the created team.
	var invitations []domain.Invitation
	var inviteErrors []string
	for _, inviteeID := range req.InviteUserIDs {
		inv, err := h.services.InvitationService.CreateInvitation(c.Request.Context(), team.ID, callerID, domain.CreateInvitationRequest{
			InvitedUserID: inviteeID,
		})
		if err != nil {
			inviteErrors = append(inviteErrors, inviteeID+": "+err.Error())
			continue
		}
		invitations = append(invitations, *inv)
	}

	resp := gin.H{"team": team}
	if len(invitations) > 0 {
		resp["invitations"] = invitations
	}
	if len(inviteErrors) > 0 {
		resp["invitation_errors"] = inviteErrors
	}
	h.successResponse(c, http.StatusCreated, resp)
}

func (h *Handler) GetTeam(c *gin.Context) {
	team, err := h.services.TeamService.GetTeam(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, team)
}

func (h *Handler) UpdateTeamSettings(c *gin.Context) {
	var patch domain.TeamSettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	team, err := h.services.TeamService.UpdateTeamSettings(c.Request.Context(), c.Param("id"), h.callerID(c), patch)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, team)
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	if err := h.services.TeamService.DeleteTeam(c.Request.Context(), c.Param("id"), h.callerID(c)); err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) DiscoverPublicTeams(c *gin.Context) {
	filter := domain.TeamFilter{
		ChallengeID: c.Query("challenge_id"),
	}
	if raw := c.Query("max_members"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "max_members must be a positive integer")
			return
		}
		filter.MaxMembers = parsed
	}
	if raw := c.Query("open_only"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			filter.OpenOnly = parsed
		}
	}

	teams, err := h.services.TeamService.DiscoverPublicTeams(c.Request.Context(), filter)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"teams": teams})
}

func (h *Handler) GetUserTeams(c *gin.Context) {
	teams, err := h.services.TeamService.GetUserTeams(c.Request.Context(), h.callerID(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"teams": teams})
}
