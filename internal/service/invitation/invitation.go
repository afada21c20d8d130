package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/repository"
	"github.com/firiho/genlink-teams/pkg/database"
)

const (
	// invitationTTL is how long an invitation stays open before it is
	// treated as implicitly declined.
	invitationTTL = 7 * 24 * time.Hour

	maxTxAttempts = 3
)

type InvitationRepository interface {
	Insert(ctx context.Context, inv domain.Invitation) error
	GetByID(ctx context.Context, invitationID string) (*domain.Invitation, error)
	GetPending(ctx context.Context, teamID, userID string) (*domain.Invitation, error)
	UpdateStatus(ctx context.Context, invitationID string, status domain.RequestStatus) error
	ListPendingByUser(ctx context.Context, userID string, now time.Time) ([]domain.UserInvitation, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)
}

type MembershipRepository interface {
	Get(ctx context.Context, teamID, userID string) (*domain.Membership, error)
}

// Directory resolves user profiles owned by the platform's directory
// service. Invitations are only sent to users it knows about.
type Directory interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// Coordinator is the lifecycle coordinator's join choke point. Calls made
// inside a transaction join it.
type Coordinator interface {
	AddMember(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error)
}

type InvitationService struct {
	invitationRepo InvitationRepository
	teamRepo       TeamRepository
	membershipRepo MembershipRepository
	directory      Directory
	coordinator    Coordinator
	txManager      database.TransactionManagerInterface
	lg             *slog.Logger
}

func NewInvitationService(invitationRepo InvitationRepository,
	teamRepo TeamRepository,
	membershipRepo MembershipRepository,
	directory Directory,
	coordinator Coordinator,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		directory:      directory,
		coordinator:    coordinator,
		txManager:      txManager,
		lg:             lg,
	}
}

// CreateInvitation invites a specific user on behalf of a team admin.
// Re-inviting a user who already has a pending invitation returns the
// existing one rather than creating a duplicate.
func (s *InvitationService) CreateInvitation(ctx context.Context, teamID, inviterID string, req domain.CreateInvitationRequest) (*domain.Invitation, error) {
	if req.InvitedUserID == "" {
		return nil, domain.ErrInvalidInput
	}

	var invitation *domain.Invitation

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		team, err := s.teamRepo.GetByID(txCtx, teamID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrTeamNotFound
			}
			return fmt.Errorf("failed to get team: %w", err)
		}
		if team.Status != domain.TeamStatusActive {
			return domain.ErrInvalidState
		}

		inviter, err := s.membershipRepo.Get(txCtx, teamID, inviterID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized
			}
			return fmt.Errorf("failed to get inviter membership: %w", err)
		}
		if !domain.HasCapability(inviter.Role, domain.ActionInviteMember) {
			return domain.ErrUnauthorized
		}

		if _, err := s.directory.GetProfile(txCtx, req.InvitedUserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to look up invitee profile: %w", err)
		}

		if _, err := s.membershipRepo.Get(txCtx, teamID, req.InvitedUserID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check invitee membership: %w", err)
		}

		existing, err := s.invitationRepo.GetPending(txCtx, teamID, req.InvitedUserID)
		if err == nil {
			invitation = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check pending invitation: %w", err)
		}

		if team.IsFull() {
			return domain.ErrCapacityExceeded
		}

		expiresAt := time.Now().Add(invitationTTL)
		inv := domain.Invitation{
			ID:            uuid.NewString(),
			TeamID:        teamID,
			InvitedUserID: req.InvitedUserID,
			InvitedBy:     inviterID,
			Message:       req.Message,
			Status:        domain.RequestPending,
			ExpiresAt:     &expiresAt,
		}
		if err := s.invitationRepo.Insert(txCtx, inv); err != nil {
			return fmt.Errorf("failed to insert invitation: %w", err)
		}
		invitation = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lg.Info("invitation created",
		slog.String("invitation_id", invitation.ID),
		slog.String("team_id", teamID),
		slog.String("invited_user_id", req.InvitedUserID),
		slog.String("invited_by", inviterID))
	return invitation, nil
}

// RespondToInvitation resolves a pending invitation. Accepting re-checks
// capacity through the coordinator at accept time: the slot that existed
// when the invite was sent may be gone. An expired invitation is marked
// declined on read.
func (s *InvitationService) RespondToInvitation(ctx context.Context, invitationID, userID string, decision domain.InvitationDecision) (*domain.Membership, error) {
	if !decision.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	var membership *domain.Membership

	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		membership = nil

		inv, err := s.invitationRepo.GetByID(txCtx, invitationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrInvitationNotFound
			}
			return fmt.Errorf("failed to get invitation: %w", err)
		}

		if inv.InvitedUserID != userID {
			return domain.ErrUnauthorized
		}
		if inv.IsExpired(time.Now()) {
			if err := s.invitationRepo.UpdateStatus(txCtx, inv.ID, domain.RequestDeclined); err != nil {
				return fmt.Errorf("failed to expire invitation: %w", err)
			}
			return domain.ErrInvalidState
		}
		if inv.Status != domain.RequestPending {
			return domain.ErrInvalidState
		}

		if decision == domain.DecisionDecline {
			if err := s.invitationRepo.UpdateStatus(txCtx, inv.ID, domain.RequestDeclined); err != nil {
				return fmt.Errorf("failed to decline invitation: %w", err)
			}
			return nil
		}

		m, err := s.coordinator.AddMember(txCtx, inv.TeamID, userID, domain.RoleMember)
		if err != nil {
			return err
		}
		if err := s.invitationRepo.UpdateStatus(txCtx, inv.ID, domain.RequestAccepted); err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		membership = m
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrTxContention) {
			return nil, domain.ErrContention
		}
		return nil, err
	}

	s.lg.Info("invitation resolved",
		slog.String("invitation_id", invitationID),
		slog.String("user_id", userID),
		slog.String("decision", string(decision)))
	return membership, nil
}

func (s *InvitationService) ListUserInvitations(ctx context.Context, userID string) ([]domain.UserInvitation, error) {
	invitations, err := s.invitationRepo.ListPendingByUser(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list user invitations: %w", err)
	}

	return invitations, nil
}
