// Package servicetest provides in-memory fakes of the repository and
// transaction-manager interfaces for service tests.
package servicetest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/repository"
)

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Store holds all persisted state behind the fake repositories. Access is
// serialized by the fake transaction manager, mirroring the per-team
// serialization the real Postgres row lock provides.
type Store struct {
	Teams        map[string]*domain.Team
	Memberships  map[string]domain.Membership
	UserTeams    map[string]domain.UserTeam
	Invitations  map[string]*domain.Invitation
	Applications map[string]*domain.Application
	Profiles     map[string]domain.Profile
	Challenges   map[string]domain.Challenge
}

func NewStore() *Store {
	return &Store{
		Teams:        make(map[string]*domain.Team),
		Memberships:  make(map[string]domain.Membership),
		UserTeams:    make(map[string]domain.UserTeam),
		Invitations:  make(map[string]*domain.Invitation),
		Applications: make(map[string]*domain.Application),
		Profiles:     make(map[string]domain.Profile),
		Challenges:   make(map[string]domain.Challenge),
	}
}

func memberKey(teamID, userID string) string { return teamID + "/" + userID }

// TxManager serializes every transaction behind one mutex. The fakes write
// only after all checks pass, so a failed transaction leaves the store
// untouched just as a rolled-back real transaction would.
type TxManager struct {
	mu sync.Mutex
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

func (m *TxManager) DoWithRetry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

type TeamRepo struct{ S *Store }

func (r *TeamRepo) Create(ctx context.Context, team *domain.Team) error {
	if _, ok := r.S.Teams[team.ID]; ok {
		return errors.New("duplicate team id")
	}
	now := time.Now()
	copied := *team
	copied.CreatedAt = &now
	copied.UpdatedAt = &now
	copied.LastActivity = &now
	r.S.Teams[team.ID] = &copied
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	team, ok := r.S.Teams[teamID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *team
	copied.Tags = append([]string(nil), team.Tags...)
	copied.Admins = append([]string(nil), team.Admins...)
	return &copied, nil
}

func (r *TeamRepo) GetByIDForUpdate(ctx context.Context, teamID string) (*domain.Team, error) {
	return r.GetByID(ctx, teamID)
}

func (r *TeamRepo) UpdateSettings(ctx context.Context, team *domain.Team) error {
	stored, ok := r.S.Teams[team.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = team.Name
	stored.Description = team.Description
	stored.Visibility = team.Visibility
	stored.JoinableEnabled = team.JoinableEnabled
	stored.AutoApprove = team.AutoApprove
	stored.Tags = append([]string(nil), team.Tags...)
	stored.MaxMembers = team.MaxMembers
	return nil
}

func (r *TeamRepo) AdjustMemberCount(ctx context.Context, teamID string, delta int) error {
	team, ok := r.S.Teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	team.CurrentMembers += delta
	now := time.Now()
	team.LastActivity = &now
	return nil
}

func (r *TeamRepo) SetAdmins(ctx context.Context, teamID string, admins []string) error {
	team, ok := r.S.Teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	team.Admins = append([]string(nil), admins...)
	return nil
}

func (r *TeamRepo) Delete(ctx context.Context, teamID string) error {
	delete(r.S.Teams, teamID)
	return nil
}

func (r *TeamRepo) ListPublic(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error) {
	var teams []domain.Team
	for _, team := range r.S.Teams {
		if team.Visibility != domain.VisibilityPublic || team.Status != domain.TeamStatusActive {
			continue
		}
		if filter.ChallengeID != "" && team.ChallengeID != filter.ChallengeID {
			continue
		}
		if filter.MaxMembers > 0 && team.MaxMembers > filter.MaxMembers {
			continue
		}
		if filter.OpenOnly && team.CurrentMembers >= team.MaxMembers {
			continue
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

type MembershipRepo struct{ S *Store }

func (r *MembershipRepo) Insert(ctx context.Context, m domain.Membership) error {
	key := memberKey(m.TeamID, m.UserID)
	if _, ok := r.S.Memberships[key]; ok {
		return errors.New("duplicate membership")
	}
	now := time.Now()
	m.JoinedAt = &now
	r.S.Memberships[key] = m
	return nil
}

func (r *MembershipRepo) Get(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	m, ok := r.S.Memberships[memberKey(teamID, userID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := m
	return &copied, nil
}

func (r *MembershipRepo) Delete(ctx context.Context, teamID, userID string) error {
	delete(r.S.Memberships, memberKey(teamID, userID))
	return nil
}

func (r *MembershipRepo) DeleteByTeam(ctx context.Context, teamID string) error {
	for key, m := range r.S.Memberships {
		if m.TeamID == teamID {
			delete(r.S.Memberships, key)
		}
	}
	return nil
}

func (r *MembershipRepo) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	var members []domain.TeamMember
	for _, m := range r.S.Memberships {
		if m.TeamID != teamID || m.Status != domain.MembershipActive {
			continue
		}
		member := domain.TeamMember{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		}
		if profile, ok := r.S.Profiles[m.UserID]; ok {
			member.Name = profile.Name
			member.Email = profile.Email
			member.PhotoURL = profile.PhotoURL
		}
		members = append(members, member)
	}
	return members, nil
}

func (r *MembershipRepo) CountActive(ctx context.Context, teamID string) (int, error) {
	count := 0
	for _, m := range r.S.Memberships {
		if m.TeamID == teamID && m.Status == domain.MembershipActive {
			count++
		}
	}
	return count, nil
}

type UserTeamsRepo struct{ S *Store }

func (r *UserTeamsRepo) Upsert(ctx context.Context, ut domain.UserTeam) error {
	r.S.UserTeams[memberKey(ut.TeamID, ut.UserID)] = ut
	return nil
}

func (r *UserTeamsRepo) Delete(ctx context.Context, userID, teamID string) error {
	delete(r.S.UserTeams, memberKey(teamID, userID))
	return nil
}

func (r *UserTeamsRepo) DeleteByTeam(ctx context.Context, teamID string) error {
	for key, ut := range r.S.UserTeams {
		if ut.TeamID == teamID {
			delete(r.S.UserTeams, key)
		}
	}
	return nil
}

func (r *UserTeamsRepo) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	var teams []domain.Team
	for _, ut := range r.S.UserTeams {
		if ut.UserID != userID || ut.Status != domain.MembershipActive {
			continue
		}
		if team, ok := r.S.Teams[ut.TeamID]; ok {
			teams = append(teams, *team)
		}
	}
	return teams, nil
}

type InvitationRepo struct{ S *Store }

func (r *InvitationRepo) Insert(ctx context.Context, inv domain.Invitation) error {
	if _, ok := r.S.Invitations[inv.ID]; ok {
		return errors.New("duplicate invitation id")
	}
	now := time.Now()
	inv.CreatedAt = &now
	r.S.Invitations[inv.ID] = &inv
	return nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	inv, ok := r.S.Invitations[invitationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *InvitationRepo) GetPending(ctx context.Context, teamID, userID string) (*domain.Invitation, error) {
	now := time.Now()
	for _, inv := range r.S.Invitations {
		if inv.TeamID == teamID && inv.InvitedUserID == userID &&
			inv.Status == domain.RequestPending && inv.ExpiresAt != nil && inv.ExpiresAt.After(now) {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *InvitationRepo) UpdateStatus(ctx context.Context, invitationID string, status domain.RequestStatus) error {
	inv, ok := r.S.Invitations[invitationID]
	if !ok {
		return repository.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (r *InvitationRepo) DeleteByTeam(ctx context.Context, teamID string) error {
	for id, inv := range r.S.Invitations {
		if inv.TeamID == teamID {
			delete(r.S.Invitations, id)
		}
	}
	return nil
}

func (r *InvitationRepo) ListPendingByUser(ctx context.Context, userID string, now time.Time) ([]domain.UserInvitation, error) {
	var invitations []domain.UserInvitation
	for _, inv := range r.S.Invitations {
		if inv.InvitedUserID != userID || inv.Status != domain.RequestPending {
			continue
		}
		if inv.ExpiresAt != nil && !inv.ExpiresAt.After(now) {
			continue
		}
		userInv := domain.UserInvitation{Invitation: *inv}
		if team, ok := r.S.Teams[inv.TeamID]; ok {
			userInv.TeamName = team.Name
			userInv.ChallengeTitle = team.ChallengeTitle
		}
		invitations = append(invitations, userInv)
	}
	return invitations, nil
}

type ApplicationRepo struct{ S *Store }

func (r *ApplicationRepo) Insert(ctx context.Context, app domain.Application) error {
	if _, ok := r.S.Applications[app.ID]; ok {
		return errors.New("duplicate application id")
	}
	now := time.Now()
	app.CreatedAt = &now
	r.S.Applications[app.ID] = &app
	return nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	app, ok := r.S.Applications[applicationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (r *ApplicationRepo) GetPending(ctx context.Context, teamID, applicantID string) (*domain.Application, error) {
	for _, app := range r.S.Applications {
		if app.TeamID == teamID && app.ApplicantID == applicantID && app.Status == domain.RequestPending {
			copied := *app
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ApplicationRepo) Resolve(ctx context.Context, applicationID string, status domain.RequestStatus, reviewerID string) error {
	app, ok := r.S.Applications[applicationID]
	if !ok || app.Status != domain.RequestPending {
		return nil
	}
	now := time.Now()
	app.Status = status
	app.ReviewedAt = &now
	app.ReviewedBy = reviewerID
	return nil
}

func (r *ApplicationRepo) DeleteByTeam(ctx context.Context, teamID string) error {
	for id, app := range r.S.Applications {
		if app.TeamID == teamID {
			delete(r.S.Applications, id)
		}
	}
	return nil
}

func (r *ApplicationRepo) ListByUser(ctx context.Context, applicantID string) ([]domain.UserApplication, error) {
	var apps []domain.UserApplication
	for _, app := range r.S.Applications {
		if app.ApplicantID != applicantID {
			continue
		}
		userApp := domain.UserApplication{Application: *app}
		if team, ok := r.S.Teams[app.TeamID]; ok {
			userApp.TeamName = team.Name
			userApp.ChallengeTitle = team.ChallengeTitle
		}
		apps = append(apps, userApp)
	}
	return apps, nil
}

func (r *ApplicationRepo) ListPendingByTeam(ctx context.Context, teamID string) ([]domain.Application, error) {
	var apps []domain.Application
	for _, app := range r.S.Applications {
		if app.TeamID == teamID && app.Status == domain.RequestPending {
			apps = append(apps, *app)
		}
	}
	return apps, nil
}

type ProfileDirectory struct{ S *Store }

func (r *ProfileDirectory) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, ok := r.S.Profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := p
	return &copied, nil
}

type ChallengeRegistry struct{ S *Store }

func (r *ChallengeRegistry) GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	ch, ok := r.S.Challenges[challengeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := ch
	return &copied, nil
}
