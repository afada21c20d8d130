package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/repository"
	"github.com/firiho/genlink-teams/pkg/database"
)

// maxTxAttempts bounds retries of capacity-sensitive transactions before
// the conflict is surfaced to the caller.
const maxTxAttempts = 3

type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)
	GetByIDForUpdate(ctx context.Context, teamID string) (*domain.Team, error)
	UpdateSettings(ctx context.Context, team *domain.Team) error
	AdjustMemberCount(ctx context.Context, teamID string, delta int) error
	SetAdmins(ctx context.Context, teamID string, admins []string) error
	Delete(ctx context.Context, teamID string) error
	ListPublic(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error)
}

type MembershipRepository interface {
	Insert(ctx context.Context, m domain.Membership) error
	Get(ctx context.Context, teamID, userID string) (*domain.Membership, error)
	Delete(ctx context.Context, teamID, userID string) error
	DeleteByTeam(ctx context.Context, teamID string) error
	ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error)
}

type UserTeamsRepository interface {
	Upsert(ctx context.Context, ut domain.UserTeam) error
	Delete(ctx context.Context, userID, teamID string) error
	DeleteByTeam(ctx context.Context, teamID string) error
	ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error)
}

type InvitationRepository interface {
	DeleteByTeam(ctx context.Context, teamID string) error
}

type ApplicationRepository interface {
	DeleteByTeam(ctx context.Context, teamID string) error
}

type ChallengeRegistry interface {
	GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error)
}

// TeamService is the lifecycle coordinator: every mutation of a team, its
// roster, or the per-user reverse index goes through here inside a single
// transaction.
type TeamService struct {
	teamRepo        TeamRepository
	membershipRepo  MembershipRepository
	userTeamsRepo   UserTeamsRepository
	invitationRepo  InvitationRepository
	applicationRepo ApplicationRepository
	challenges      ChallengeRegistry
	txManager       database.TransactionManagerInterface
	lg              *slog.Logger
}

func NewTeamService(teamRepo TeamRepository,
	membershipRepo MembershipRepository,
	userTeamsRepo UserTeamsRepository,
	invitationRepo InvitationRepository,
	applicationRepo ApplicationRepository,
	challenges ChallengeRegistry,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *TeamService {
	return &TeamService{
		teamRepo:        teamRepo,
		membershipRepo:  membershipRepo,
		userTeamsRepo:   userTeamsRepo,
		invitationRepo:  invitationRepo,
		applicationRepo: applicationRepo,
		challenges:      challenges,
		txManager:       txManager,
		lg:              lg,
	}
}

func (s *TeamService) CreateTeam(ctx context.Context, requesterID string, req domain.CreateTeamRequest) (*domain.Team, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	challenge, err := s.challenges.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to look up challenge: %w", err)
	}
	if !challenge.AllowTeams {
		return nil, domain.ErrTeamsNotAllowed
	}

	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = challenge.MaxTeamSize
	}
	if maxMembers <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if challenge.MaxTeamSize > 0 && maxMembers > challenge.MaxTeamSize {
		return nil, domain.ErrInvalidInput
	}

	team := &domain.Team{
		ID:              uuid.NewString(),
		Name:            req.Name,
		Description:     req.Description,
		ChallengeID:     challenge.ID,
		ChallengeTitle:  challenge.Title,
		MaxMembers:      maxMembers,
		Visibility:      req.Visibility,
		JoinableEnabled: req.JoinableEnabled,
		AutoApprove:     req.AutoApprove,
		Tags:            req.Tags,
		Status:          domain.TeamStatusActive,
		CreatedBy:       requesterID,
		Admins:          []string{},
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.teamRepo.Create(txCtx, team); err != nil {
			return fmt.Errorf("failed to create team: %w", err)
		}
		if _, err := s.AddMember(txCtx, team.ID, requesterID, domain.RoleOwner); err != nil {
			return fmt.Errorf("failed to add owner membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.teamRepo.GetByID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload created team: %w", err)
	}

	s.lg.Info("team created",
		slog.String("team_id", created.ID),
		slog.String("challenge_id", created.ChallengeID),
		slog.String("created_by", requesterID))
	return created, nil
}

// AddMember turns a pending request into an active membership. It is the
// single choke point for joining a team and must run inside a transaction;
// the row lock taken here serializes concurrent joins so the capacity check
// and the counter increment commit together. Adding an existing member is a
// no-op, not an error.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error) {
	team, err := s.teamRepo.GetByIDForUpdate(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}

	if team.Status != domain.TeamStatusActive {
		return nil, domain.ErrInvalidState
	}

	existing, err := s.membershipRepo.Get(ctx, teamID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	if team.IsFull() {
		return nil, domain.ErrCapacityExceeded
	}

	membership := domain.Membership{
		TeamID: teamID,
		UserID: userID,
		Role:   role,
		Status: domain.MembershipActive,
	}
	if err := s.membershipRepo.Insert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to insert membership: %w", err)
	}
	if err := s.userTeamsRepo.Upsert(ctx, domain.UserTeam{
		UserID: userID,
		TeamID: teamID,
		Role:   role,
		Status: domain.MembershipActive,
	}); err != nil {
		return nil, fmt.Errorf("failed to update reverse index: %w", err)
	}
	if err := s.teamRepo.AdjustMemberCount(ctx, teamID, 1); err != nil {
		return nil, fmt.Errorf("failed to increment member count: %w", err)
	}

	if (role == domain.RoleOwner || role == domain.RoleAdmin) && !team.IsAdmin(userID) {
		if err := s.teamRepo.SetAdmins(ctx, teamID, append(team.Admins, userID)); err != nil {
			return nil, fmt.Errorf("failed to extend admins: %w", err)
		}
	}

	s.lg.Info("member added",
		slog.String("team_id", teamID),
		slog.String("user_id", userID),
		slog.String("role", string(role)))
	return &membership, nil
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, actingUserID, targetUserID string) error {
	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		team, err := s.lockTeam(txCtx, teamID)
		if err != nil {
			return err
		}

		acting, err := s.membershipRepo.Get(txCtx, teamID, actingUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized
			}
			return fmt.Errorf("failed to get acting membership: %w", err)
		}
		if !domain.HasCapability(acting.Role, domain.ActionRemoveMember) {
			return domain.ErrUnauthorized
		}

		return s.removeMember(txCtx, team, targetUserID)
	})
	if err != nil {
		return s.mapContention(err)
	}

	s.lg.Info("member removed",
		slog.String("team_id", teamID),
		slog.String("user_id", targetUserID),
		slog.String("removed_by", actingUserID))
	return nil
}

// LeaveTeam is the self-service variant of RemoveMember. The owner cannot
// leave; ownership must be transferred or the team deleted instead.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID string) error {
	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		team, err := s.lockTeam(txCtx, teamID)
		if err != nil {
			return err
		}
		return s.removeMember(txCtx, team, userID)
	})
	if err != nil {
		return s.mapContention(err)
	}

	s.lg.Info("member left team",
		slog.String("team_id", teamID),
		slog.String("user_id", userID))
	return nil
}

func (s *TeamService) removeMember(ctx context.Context, team *domain.Team, targetUserID string) error {
	if team.IsOwner(targetUserID) {
		return domain.ErrOwnerProtected
	}

	if _, err := s.membershipRepo.Get(ctx, team.ID, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrMemberNotFound
		}
		return fmt.Errorf("failed to get target membership: %w", err)
	}

	if err := s.membershipRepo.Delete(ctx, team.ID, targetUserID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if err := s.userTeamsRepo.Delete(ctx, targetUserID, team.ID); err != nil {
		return fmt.Errorf("failed to update reverse index: %w", err)
	}
	if err := s.teamRepo.AdjustMemberCount(ctx, team.ID, -1); err != nil {
		return fmt.Errorf("failed to decrement member count: %w", err)
	}

	if team.IsAdmin(targetUserID) {
		admins := make([]string, 0, len(team.Admins))
		for _, id := range team.Admins {
			if id != targetUserID {
				admins = append(admins, id)
			}
		}
		if err := s.teamRepo.SetAdmins(ctx, team.ID, admins); err != nil {
			return fmt.Errorf("failed to shrink admins: %w", err)
		}
	}

	return nil
}

func (s *TeamService) UpdateTeamSettings(ctx context.Context, teamID, actingUserID string, patch domain.TeamSettingsPatch) (*domain.Team, error) {
	var updated *domain.Team

	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		team, err := s.lockTeam(txCtx, teamID)
		if err != nil {
			return err
		}

		acting, err := s.membershipRepo.Get(txCtx, teamID, actingUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized
			}
			return fmt.Errorf("failed to get acting membership: %w", err)
		}
		if !domain.HasCapability(acting.Role, domain.ActionEditSettings) {
			return domain.ErrUnauthorized
		}

		if err := patch.Apply(team); err != nil {
			return err
		}
		if err := s.teamRepo.UpdateSettings(txCtx, team); err != nil {
			return fmt.Errorf("failed to persist team settings: %w", err)
		}
		updated = team
		return nil
	})
	if err != nil {
		return nil, s.mapContention(err)
	}

	s.lg.Info("team settings updated",
		slog.String("team_id", teamID),
		slog.String("updated_by", actingUserID))
	return updated, nil
}

// DeleteTeam removes the team and every dependent record. The cascade runs
// in one transaction; re-running it against already-deleted children is a
// no-op.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, actingUserID string) error {
	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		team, err := s.lockTeam(txCtx, teamID)
		if err != nil {
			return err
		}

		acting, err := s.membershipRepo.Get(txCtx, teamID, actingUserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized
			}
			return fmt.Errorf("failed to get acting membership: %w", err)
		}
		if !domain.HasCapability(acting.Role, domain.ActionDeleteTeam) {
			return domain.ErrUnauthorized
		}

		if err := s.applicationRepo.DeleteByTeam(txCtx, team.ID); err != nil {
			return fmt.Errorf("failed to delete team applications: %w", err)
		}
		if err := s.invitationRepo.DeleteByTeam(txCtx, team.ID); err != nil {
			return fmt.Errorf("failed to delete team invitations: %w", err)
		}
		if err := s.userTeamsRepo.DeleteByTeam(txCtx, team.ID); err != nil {
			return fmt.Errorf("failed to delete reverse index rows: %w", err)
		}
		if err := s.membershipRepo.DeleteByTeam(txCtx, team.ID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := s.teamRepo.Delete(txCtx, team.ID); err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.mapContention(err)
	}

	s.lg.Info("team deleted",
		slog.String("team_id", teamID),
		slog.String("deleted_by", actingUserID))
	return nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return team, nil
}

func (s *TeamService) GetTeamMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	members, err := s.membershipRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}

	// Profiles live in another service's table; a missing row must not
	// break the roster.
	for i := range members {
		if members[i].Name == "" {
			members[i].Name = domain.PlaceholderProfile(members[i].UserID).Name
		}
	}

	return members, nil
}

func (s *TeamService) GetUserTeams(ctx context.Context, userID string) ([]domain.Team, error) {
	teams, err := s.userTeamsRepo.ListTeamsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}

	return teams, nil
}

func (s *TeamService) DiscoverPublicTeams(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error) {
	teams, err := s.teamRepo.ListPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to discover public teams: %w", err)
	}

	return teams, nil
}

func (s *TeamService) lockTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teamRepo.GetByIDForUpdate(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}
	return team, nil
}

func (s *TeamService) mapContention(err error) error {
	if errors.Is(err, database.ErrTxContention) {
		s.lg.Warn("team write retry budget exhausted", slog.Any("error", err))
		return domain.ErrContention
	}
	return err
}
