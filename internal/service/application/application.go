package application

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

const maxTxAttempts = 3

type ApplicationRepository interface {
	Insert(ctx context.Context, app domain.Application) error
	GetByID(ctx context.Context, applicationID string) (*domain.Application, error)
	GetPending(ctx context.Context, teamID, applicantID string) (*domain.Application, error)
	Resolve(ctx context.Context, applicationID string, status domain.RequestStatus, reviewerID string) error
	ListByUser(ctx context.Context, applicantID string) ([]domain.UserApplication, error)
	ListPendingByTeam(ctx context.Context, teamID string) ([]domain.Application, error)
}

type TeamRepository interface {
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)
}

type MembershipRepository interface {
	Get(ctx context.Context, teamID, userID string) (*domain.Membership, error)
}

type Coordinator interface {
	AddMember(ctx context.Context, teamID, userID string, role domain.Role) (*domain.Membership, error)
}

type ApplicationService struct {
	applicationRepo ApplicationRepository
	teamRepo        TeamRepository
	membershipRepo  MembershipRepository
	coordinator     Coordinator
	txManager       database.TransactionManagerInterface
	lg              *slog.Logger
}

func NewApplicationService(applicationRepo ApplicationRepository,
	teamRepo TeamRepository,
	membershipRepo MembershipRepository,
	coordinator Coordinator,
	txManager database.TransactionManagerInterface,
	lg *slog.Logger) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		teamRepo:        teamRepo,
		membershipRepo:  membershipRepo,
		coordinator:     coordinator,
		txManager:       txManager,
		lg:              lg,
	}
}

// CreateApplication files a join request. On auto-approve teams the
// accepted application and the membership commit in the same transaction:
// if the join fails the capacity check, neither is written.
func (s *ApplicationService) CreateApplication(ctx context.Context, teamID, applicantID string, req domain.CreateApplicationRequest) (*domain.Application, error) {
	var application *domain.Application

	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		application = nil

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

		// Invite-only teams accept applications only through a joinable
		// link; the token is validated upstream and passed as a hint.
		if team.Visibility != domain.VisibilityPublic && req.JoinToken == "" {
			return domain.ErrNotJoinable
		}

		if _, err := s.membershipRepo.Get(txCtx, teamID, applicantID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check applicant membership: %w", err)
		}

		if _, err := s.applicationRepo.GetPending(txCtx, teamID, applicantID); err == nil {
			return domain.ErrDuplicateRequest
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check pending application: %w", err)
		}

		app := domain.Application{
			ID:          uuid.NewString(),
			TeamID:      teamID,
			ApplicantID: applicantID,
			Message:     req.Message,
			Status:      domain.RequestPending,
		}

		if team.AutoApprove {
			if _, err := s.coordinator.AddMember(txCtx, teamID, applicantID, domain.RoleMember); err != nil {
				return err
			}
			now := time.Now()
			app.Status = domain.RequestAccepted
			app.ReviewedAt = &now
		}

		if err := s.applicationRepo.Insert(txCtx, app); err != nil {
			return fmt.Errorf("failed to insert application: %w", err)
		}
		application = &app
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrTxContention) {
			return nil, domain.ErrContention
		}
		return nil, err
	}

	s.lg.Info("application created",
		slog.String("application_id", application.ID),
		slog.String("team_id", teamID),
		slog.String("applicant_id", applicantID),
		slog.String("status", string(application.Status)))
	return application, nil
}

// ReviewApplication resolves a pending application. Accepting re-checks
// capacity at review time; a full team leaves the application pending and
// surfaces the capacity error.
func (s *ApplicationService) ReviewApplication(ctx context.Context, applicationID, reviewerID string, decision domain.InvitationDecision) (*domain.Application, error) {
	if !decision.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	var reviewed *domain.Application

	err := s.txManager.DoWithRetry(ctx, maxTxAttempts, func(txCtx context.Context) error {
		app, err := s.applicationRepo.GetByID(txCtx, applicationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrApplicationNotFound
			}
			return fmt.Errorf("failed to get application: %w", err)
		}

		reviewer, err := s.membershipRepo.Get(txCtx, app.TeamID, reviewerID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.ErrUnauthorized
			}
			return fmt.Errorf("failed to get reviewer membership: %w", err)
		}
		if !domain.HasCapability(reviewer.Role, domain.ActionReviewRequest) {
			return domain.ErrUnauthorized
		}

		if app.Status != domain.RequestPending {
			return domain.ErrInvalidState
		}

		status := domain.RequestDeclined
		if decision == domain.DecisionAccept {
			if _, err := s.coordinator.AddMember(txCtx, app.TeamID, app.ApplicantID, domain.RoleMember); err != nil {
				return err
			}
			status = domain.RequestAccepted
		}

		if err := s.applicationRepo.Resolve(txCtx, app.ID, status, reviewerID); err != nil {
			return fmt.Errorf("failed to resolve application: %w", err)
		}

		now := time.Now()
		app.Status = status
		app.ReviewedAt = &now
		app.ReviewedBy = reviewerID
		reviewed = app
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrTxContention) {
			return nil, domain.ErrContention
		}
		return nil, err
	}

	s.lg.Info("application reviewed",
		slog.String("application_id", applicationID),
		slog.String("reviewed_by", reviewerID),
		slog.String("decision", string(decision)))
	return reviewed, nil
}

func (s *ApplicationService) ListUserApplications(ctx context.Context, applicantID string) ([]domain.UserApplication, error) {
	apps, err := s.applicationRepo.ListByUser(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user applications: %w", err)
	}

	return apps, nil
}

// ListTeamApplications is the admin review queue for a team.
func (s *ApplicationService) ListTeamApplications(ctx context.Context, teamID, actingUserID string) ([]domain.Application, error) {
	acting, err := s.membershipRepo.Get(ctx, teamID, actingUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get acting membership: %w", err)
	}
	if !domain.HasCapability(acting.Role, domain.ActionReviewRequest) {
		return nil, domain.ErrUnauthorized
	}

	apps, err := s.applicationRepo.ListPendingByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team applications: %w", err)
	}

	return apps, nil
}
