package service

import (
	"github.com/firiho/genlink-teams/internal/service/application"
	"github.com/firiho/genlink-teams/internal/service/invitation"
	"github.com/firiho/genlink-teams/internal/service/team"
)

type Services struct {
	TeamService        *team.TeamService
	InvitationService  *invitation.InvitationService
	ApplicationService *application.ApplicationService
	StatsService       *StatsService
}
