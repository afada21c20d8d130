package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/middleware"
	"github.com/firiho/genlink-teams/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *slog.Logger
}

func NewHandler(services *service.Services, logger *slog.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	router.Use(cors.New(config))

	// Discovery and stats are the only unauthenticated reads.
	router.GET("/teams", h.DiscoverPublicTeams)
	router.GET("/stats", h.GetStatistics)

	auth := router.Group("/", middleware.Auth())

	teams := auth.Group("/teams")
	{
		teams.POST("", h.CreateTeam)
		teams.GET("/:id", h.GetTeam)
		teams.PATCH("/:id", h.UpdateTeamSettings)
		teams.DELETE("/:id", h.DeleteTeam)
		teams.GET("/:id/members", h.GetTeamMembers)
		teams.DELETE("/:id/members/:userId", h.RemoveMember)
		teams.POST("/:id/leave", h.LeaveTeam)
		teams.POST("/:id/invitations", h.CreateInvitation)
		teams.POST("/:id/applications", h.CreateApplication)
		teams.GET("/:id/applications", h.ListTeamApplications)
	}

	auth.POST("/invitations/:id/respond", h.RespondToInvitation)
	auth.POST("/applications/:id/review", h.ReviewApplication)

	users := auth.Group("/users/me")
	{
		users.GET("/teams", h.GetUserTeams)
		users.GET("/invitations", h.ListUserInvitations)
		users.GET("/applications", h.ListUserApplications)
	}

	return router
}

func (h *Handler) errorResponse(c *gin.Context, status int, code, message string) {
	h.logger.Error("handler error", "code", code, "message", message, "status", status)
	c.JSON(status, domain.ErrorResponse{
		Error: domain.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) successResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// serviceError maps domain sentinels onto the wire error taxonomy. Every
// handler funnels service failures through here so the mapping lives in one
// place.
func (h *Handler) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrTeamNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrInvitationNotFound),
		errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.errorResponse(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		h.errorResponse(c, http.StatusConflict, "CAPACITY_EXCEEDED", err.Error())
	case errors.Is(err, domain.ErrAlreadyMember):
		h.errorResponse(c, http.StatusConflict, "ALREADY_MEMBER", err.Error())
	case errors.Is(err, domain.ErrDuplicateRequest):
		h.errorResponse(c, http.StatusConflict, "DUPLICATE_REQUEST", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		h.errorResponse(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, domain.ErrOwnerProtected):
		h.errorResponse(c, http.StatusConflict, "OWNER_PROTECTED", err.Error())
	case errors.Is(err, domain.ErrContention):
		h.errorResponse(c, http.StatusConflict, "CONTENTION", err.Error())
	case errors.Is(err, domain.ErrTeamsNotAllowed):
		h.errorResponse(c, http.StatusConflict, "TEAMS_NOT_ALLOWED", err.Error())
	case errors.Is(err, domain.ErrNotJoinable):
		h.errorResponse(c, http.StatusConflict, "NOT_JOINABLE", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func (h *Handler) callerID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
