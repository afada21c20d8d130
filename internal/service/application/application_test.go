package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/service/application"
	"github.com/firiho/genlink-teams/internal/service/servicetest"
	"github.com/firiho/genlink-teams/internal/service/team"
)

func newServices(store *servicetest.Store) (*team.TeamService, *application.ApplicationService) {
	tx := &servicetest.TxManager{}
	teamRepo := &servicetest.TeamRepo{S: store}
	membershipRepo := &servicetest.MembershipRepo{S: store}
	applicationRepo := &servicetest.ApplicationRepo{S: store}

	teamSvc := team.NewTeamService(teamRepo, membershipRepo,
		&servicetest.UserTeamsRepo{S: store}, &servicetest.InvitationRepo{S: store},
		applicationRepo, &servicetest.ChallengeRegistry{S: store},
		tx, servicetest.Logger())
	appSvc := application.NewApplicationService(applicationRepo, teamRepo, membershipRepo,
		teamSvc, tx, servicetest.Logger())
	return teamSvc, appSvc
}

func seedTeam(store *servicetest.Store, id, owner string, maxMembers int) *domain.Team {
	now := time.Now()
	t := &domain.Team{
		ID:             id,
		Name:           "Team " + id,
		ChallengeID:    "ch-1",
		MaxMembers:     maxMembers,
		CurrentMembers: 1,
		Visibility:     domain.VisibilityPublic,
		Status:         domain.TeamStatusActive,
		CreatedBy:      owner,
		Admins:         []string{owner},
		CreatedAt:      &now,
	}
	store.Teams[id] = t
	store.Memberships[id+"/"+owner] = domain.Membership{
		TeamID: id, UserID: owner, Role: domain.RoleOwner, Status: domain.MembershipActive, JoinedAt: &now,
	}
	store.UserTeams[id+"/"+owner] = domain.UserTeam{
		UserID: owner, TeamID: id, Role: domain.RoleOwner, Status: domain.MembershipActive,
	}
	return t
}

func TestCreateApplication(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	_, svc := newServices(store)

	app, err := svc.CreateApplication(context.Background(), "t1", "bob", domain.CreateApplicationRequest{
		Message: "let me in",
	})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if app.Status != domain.RequestPending {
		t.Errorf("status = %q, want pending", app.Status)
	}
	if store.Teams["t1"].CurrentMembers != 1 {
		t.Errorf("pending application changed member count to %d", store.Teams["t1"].CurrentMembers)
	}

	// A second application while one is pending is a duplicate, not an
	// idempotent success.
	if _, err := svc.CreateApplication(context.Background(), "t1", "bob", domain.CreateApplicationRequest{}); !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Errorf("duplicate application error = %v, want ErrDuplicateRequest", err)
	}
}

func TestCreateApplicationVisibilityGate(t *testing.T) {
	store := servicetest.NewStore()
	hidden := seedTeam(store, "t1", "alice", 3)
	hidden.Visibility = domain.VisibilityInviteOnly
	_, svc := newServices(store)
	ctx := context.Background()

	if _, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{}); !errors.Is(err, domain.ErrNotJoinable) {
		t.Errorf("applying to invite-only team error = %v, want ErrNotJoinable", err)
	}

	// A joinable-link token passes the gate.
	if _, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{JoinToken: "tok-123"}); err != nil {
		t.Errorf("applying with join token: %v", err)
	}
}

func TestCreateApplicationRejections(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	closed := seedTeam(store, "t2", "carol", 3)
	closed.Status = domain.TeamStatusClosed
	teamSvc, svc := newServices(store)
	ctx := context.Background()

	if _, err := teamSvc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CreateApplication(ctx, "nope", "dave", domain.CreateApplicationRequest{}); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Errorf("unknown team error = %v, want ErrTeamNotFound", err)
	}
	if _, err := svc.CreateApplication(ctx, "t2", "dave", domain.CreateApplicationRequest{}); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("closed team error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{}); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Errorf("existing member error = %v, want ErrAlreadyMember", err)
	}
}

func TestAutoApprove(t *testing.T) {
	store := servicetest.NewStore()
	open := seedTeam(store, "t1", "alice", 3)
	open.AutoApprove = true
	_, svc := newServices(store)

	app, err := svc.CreateApplication(context.Background(), "t1", "bob", domain.CreateApplicationRequest{})
	if err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
	if app.Status != domain.RequestAccepted {
		t.Errorf("status = %q, want accepted", app.Status)
	}
	if _, ok := store.Memberships["t1/bob"]; !ok {
		t.Error("auto-approve accepted the application without creating the membership")
	}
	if store.Teams["t1"].CurrentMembers != 2 {
		t.Errorf("current members = %d, want 2", store.Teams["t1"].CurrentMembers)
	}
}

// An auto-approve join on a full team must leave neither an accepted
// application nor a membership behind.
func TestAutoApproveAtomicOnFullTeam(t *testing.T) {
	store := servicetest.NewStore()
	full := seedTeam(store, "t1", "alice", 1)
	full.AutoApprove = true
	_, svc := newServices(store)

	_, err := svc.CreateApplication(context.Background(), "t1", "bob", domain.CreateApplicationRequest{})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("CreateApplication error = %v, want ErrCapacityExceeded", err)
	}
	if len(store.Applications) != 0 {
		t.Errorf("%d applications written despite failed join", len(store.Applications))
	}
	if _, ok := store.Memberships["t1/bob"]; ok {
		t.Error("membership written despite failed join")
	}
	if store.Teams["t1"].CurrentMembers != 1 {
		t.Errorf("current members = %d, want 1", store.Teams["t1"].CurrentMembers)
	}
}

func TestReviewApplication(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	_, svc := newServices(store)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ReviewApplication(ctx, app.ID, "bob", domain.DecisionAccept); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("applicant reviewing own application error = %v, want ErrUnauthorized", err)
	}

	reviewed, err := svc.ReviewApplication(ctx, app.ID, "alice", domain.DecisionAccept)
	if err != nil {
		t.Fatalf("ReviewApplication: %v", err)
	}
	if reviewed.Status != domain.RequestAccepted || reviewed.ReviewedBy != "alice" {
		t.Errorf("reviewed = %+v, want accepted by alice", reviewed)
	}
	if _, ok := store.Memberships["t1/bob"]; !ok {
		t.Error("accepted application did not create the membership")
	}

	// Reviewed applications are immutable history.
	if _, err := svc.ReviewApplication(ctx, app.ID, "alice", domain.DecisionDecline); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("re-reviewing error = %v, want ErrInvalidState", err)
	}
}

func TestReviewApplicationDecline(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	_, svc := newServices(store)
	ctx := context.Background()

	app, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{})
	if err != nil {
		t.Fatal(err)
	}

	reviewed, err := svc.ReviewApplication(ctx, app.ID, "alice", domain.DecisionDecline)
	if err != nil {
		t.Fatalf("ReviewApplication: %v", err)
	}
	if reviewed.Status != domain.RequestDeclined {
		t.Errorf("status = %q, want declined", reviewed.Status)
	}
	if _, ok := store.Memberships["t1/bob"]; ok {
		t.Error("declined application created a membership")
	}
}

// The full lifecycle: approvals, an invitation accept, and a late applicant
// bouncing off a full roster while their application stays pending.
func TestMembershipScenario(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	teamSvc, svc := newServices(store)
	ctx := context.Background()

	appA, err := svc.CreateApplication(ctx, "t1", "userA", domain.CreateApplicationRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReviewApplication(ctx, appA.ID, "alice", domain.DecisionAccept); err != nil {
		t.Fatalf("approve A: %v", err)
	}
	if got := store.Teams["t1"].CurrentMembers; got != 2 {
		t.Fatalf("after A joins: current members = %d, want 2", got)
	}

	// B joins through the coordinator, as an invitation accept would.
	if _, err := teamSvc.AddMember(ctx, "t1", "userB", domain.RoleMember); err != nil {
		t.Fatalf("B joins: %v", err)
	}
	if got := store.Teams["t1"].CurrentMembers; got != 3 {
		t.Fatalf("after B joins: current members = %d, want 3", got)
	}

	// The roster is now full. C may still file an application...
	appC, err := svc.CreateApplication(ctx, "t1", "userC", domain.CreateApplicationRequest{})
	if err != nil {
		t.Fatalf("C applies: %v", err)
	}
	// ...but accepting it must fail the capacity re-check and leave the
	// application pending.
	if _, err := svc.ReviewApplication(ctx, appC.ID, "alice", domain.DecisionAccept); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("accept C error = %v, want ErrCapacityExceeded", err)
	}
	if store.Applications[appC.ID].Status != domain.RequestPending {
		t.Errorf("C's application status = %q, want still pending", store.Applications[appC.ID].Status)
	}
	if got := store.Teams["t1"].CurrentMembers; got != 3 {
		t.Errorf("current members = %d, want 3", got)
	}
}

func TestListApplications(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 4)
	_, svc := newServices(store)
	ctx := context.Background()

	if _, err := svc.CreateApplication(ctx, "t1", "bob", domain.CreateApplicationRequest{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateApplication(ctx, "t1", "carol", domain.CreateApplicationRequest{}); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.ListTeamApplications(ctx, "t1", "alice")
	if err != nil {
		t.Fatalf("ListTeamApplications: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending queue has %d applications, want 2", len(pending))
	}

	if _, err := svc.ListTeamApplications(ctx, "t1", "bob"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("non-admin listing queue error = %v, want ErrUnauthorized", err)
	}

	mine, err := svc.ListUserApplications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListUserApplications: %v", err)
	}
	if len(mine) != 1 || mine[0].TeamName == "" {
		t.Errorf("user applications = %+v, want 1 with team display data", mine)
	}
}
