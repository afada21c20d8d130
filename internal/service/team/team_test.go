package team_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/service/servicetest"
	"github.com/firiho/genlink-teams/internal/service/team"
)

func newService(store *servicetest.Store) *team.TeamService {
	return team.NewTeamService(
		&servicetest.TeamRepo{S: store},
		&servicetest.MembershipRepo{S: store},
		&servicetest.UserTeamsRepo{S: store},
		&servicetest.InvitationRepo{S: store},
		&servicetest.ApplicationRepo{S: store},
		&servicetest.ChallengeRegistry{S: store},
		&servicetest.TxManager{},
		servicetest.Logger(),
	)
}

func seedChallenge(store *servicetest.Store, id string, allowTeams bool, maxSize int) {
	store.Challenges[id] = domain.Challenge{
		ID:          id,
		Title:       "Challenge " + id,
		AllowTeams:  allowTeams,
		MaxTeamSize: maxSize,
	}
}

func seedTeam(store *servicetest.Store, id, owner string, maxMembers int) *domain.Team {
	now := time.Now()
	team := &domain.Team{
		ID:             id,
		Name:           "Team " + id,
		ChallengeID:    "ch-1",
		ChallengeTitle: "Challenge ch-1",
		MaxMembers:     maxMembers,
		CurrentMembers: 1,
		Visibility:     domain.VisibilityPublic,
		Status:         domain.TeamStatusActive,
		CreatedBy:      owner,
		Admins:         []string{owner},
		CreatedAt:      &now,
	}
	store.Teams[id] = team
	store.Memberships[id+"/"+owner] = domain.Membership{
		TeamID: id, UserID: owner, Role: domain.RoleOwner, Status: domain.MembershipActive, JoinedAt: &now,
	}
	store.UserTeams[id+"/"+owner] = domain.UserTeam{
		UserID: owner, TeamID: id, Role: domain.RoleOwner, Status: domain.MembershipActive,
	}
	return team
}

func assertInvariant(t *testing.T, store *servicetest.Store, teamID string) {
	t.Helper()
	stored, ok := store.Teams[teamID]
	if !ok {
		return
	}
	active := 0
	for _, m := range store.Memberships {
		if m.TeamID == teamID && m.Status == domain.MembershipActive {
			active++
		}
	}
	if stored.CurrentMembers != active {
		t.Fatalf("counter invariant broken: current_members=%d, active memberships=%d", stored.CurrentMembers, active)
	}
	if stored.CurrentMembers > stored.MaxMembers {
		t.Fatalf("capacity invariant broken: current_members=%d > max_members=%d", stored.CurrentMembers, stored.MaxMembers)
	}
}

func TestCreateTeam(t *testing.T) {
	store := servicetest.NewStore()
	seedChallenge(store, "ch-1", true, 4)
	svc := newService(store)

	created, err := svc.CreateTeam(context.Background(), "alice", domain.CreateTeamRequest{
		Name:        "Rocket",
		ChallengeID: "ch-1",
	})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	if created.MaxMembers != 4 {
		t.Errorf("max members = %d, want challenge cap 4", created.MaxMembers)
	}
	if created.CurrentMembers != 1 {
		t.Errorf("current members = %d, want 1", created.CurrentMembers)
	}
	if created.CreatedBy != "alice" {
		t.Errorf("created by = %q, want alice", created.CreatedBy)
	}
	if len(created.Admins) != 1 || created.Admins[0] != "alice" {
		t.Errorf("admins = %v, want [alice]", created.Admins)
	}

	m, ok := store.Memberships[created.ID+"/alice"]
	if !ok {
		t.Fatal("owner membership not written")
	}
	if m.Role != domain.RoleOwner {
		t.Errorf("owner role = %q, want owner", m.Role)
	}
	if _, ok := store.UserTeams[created.ID+"/alice"]; !ok {
		t.Error("reverse index row not written")
	}
	assertInvariant(t, store, created.ID)
}

func TestCreateTeamValidation(t *testing.T) {
	store := servicetest.NewStore()
	seedChallenge(store, "ch-1", true, 4)
	seedChallenge(store, "solo", false, 1)
	svc := newService(store)

	tests := []struct {
		name    string
		req     domain.CreateTeamRequest
		wantErr error
	}{
		{
			name:    "empty name",
			req:     domain.CreateTeamRequest{Name: "  ", ChallengeID: "ch-1"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "unknown challenge",
			req:     domain.CreateTeamRequest{Name: "Rocket", ChallengeID: "nope"},
			wantErr: domain.ErrChallengeNotFound,
		},
		{
			name:    "challenge disallows teams",
			req:     domain.CreateTeamRequest{Name: "Rocket", ChallengeID: "solo"},
			wantErr: domain.ErrTeamsNotAllowed,
		},
		{
			name:    "over challenge cap",
			req:     domain.CreateTeamRequest{Name: "Rocket", ChallengeID: "ch-1", MaxMembers: 10},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative max members",
			req:     domain.CreateTeamRequest{Name: "Rocket", ChallengeID: "ch-1", MaxMembers: -1},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTeam(context.Background(), "alice", tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTeam error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(store.Teams) != 0 {
		t.Errorf("rejected requests left %d teams behind", len(store.Teams))
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	svc := newService(store)

	if _, err := svc.AddMember(context.Background(), "t1", "bob", domain.RoleMember); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	if _, err := svc.AddMember(context.Background(), "t1", "bob", domain.RoleMember); err != nil {
		t.Fatalf("second AddMember: %v", err)
	}

	if got := store.Teams["t1"].CurrentMembers; got != 2 {
		t.Errorf("current members = %d, want 2 (increment exactly once)", got)
	}
	assertInvariant(t, store, "t1")
}

func TestAddMemberCapacity(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 1)
	svc := newService(store)

	_, err := svc.AddMember(context.Background(), "t1", "bob", domain.RoleMember)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("AddMember on full team error = %v, want ErrCapacityExceeded", err)
	}
	assertInvariant(t, store, "t1")
}

func TestAddMemberInactiveTeam(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	store.Teams["t1"].Status = domain.TeamStatusClosed
	svc := newService(store)

	_, err := svc.AddMember(context.Background(), "t1", "bob", domain.RoleMember)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("AddMember on closed team error = %v, want ErrInvalidState", err)
	}
}

func TestAddMemberAdminRoleExtendsAdmins(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	svc := newService(store)

	if _, err := svc.AddMember(context.Background(), "t1", "bob", domain.RoleAdmin); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if !store.Teams["t1"].IsAdmin("bob") {
		t.Error("admin member not added to admins set")
	}
}

func TestRemoveMember(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	if err := svc.RemoveMember(ctx, "t1", "alice", "bob"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if _, ok := store.Memberships["t1/bob"]; ok {
		t.Error("membership row still present after removal")
	}
	if _, ok := store.UserTeams["t1/bob"]; ok {
		t.Error("reverse index row still present after removal")
	}
	assertInvariant(t, store, "t1")
}

func TestRemoveMemberAuthorization(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 4)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddMember(ctx, "t1", "carol", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	if err := svc.RemoveMember(ctx, "t1", "bob", "carol"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("member removing member error = %v, want ErrUnauthorized", err)
	}
	if err := svc.RemoveMember(ctx, "t1", "dave", "carol"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("outsider removing member error = %v, want ErrUnauthorized", err)
	}
	if err := svc.RemoveMember(ctx, "t1", "alice", "alice"); !errors.Is(err, domain.ErrOwnerProtected) {
		t.Errorf("removing owner error = %v, want ErrOwnerProtected", err)
	}
	if err := svc.RemoveMember(ctx, "t1", "alice", "nobody"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("removing non-member error = %v, want ErrMemberNotFound", err)
	}
}

func TestRemoveAdminShrinksAdmins(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveMember(ctx, "t1", "alice", "bob"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if store.Teams["t1"].IsAdmin("bob") {
		t.Error("removed admin still in admins set")
	}
}

func TestLeaveTeam(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	if err := svc.LeaveTeam(ctx, "t1", "bob"); err != nil {
		t.Fatalf("LeaveTeam: %v", err)
	}
	if err := svc.LeaveTeam(ctx, "t1", "alice"); !errors.Is(err, domain.ErrOwnerProtected) {
		t.Errorf("owner leaving error = %v, want ErrOwnerProtected", err)
	}
	assertInvariant(t, store, "t1")
}

func TestUpdateTeamSettings(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 4)
	svc := newService(store)
	ctx := context.Background()

	name := "Renamed"
	visibility := domain.VisibilityInviteOnly
	updated, err := svc.UpdateTeamSettings(ctx, "t1", "alice", domain.TeamSettingsPatch{
		Name:       &name,
		Visibility: &visibility,
	})
	if err != nil {
		t.Fatalf("UpdateTeamSettings: %v", err)
	}
	if updated.Name != "Renamed" || updated.Visibility != domain.VisibilityInviteOnly {
		t.Errorf("patch not applied: %+v", updated)
	}

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}
	tooSmall := 1
	if _, err := svc.UpdateTeamSettings(ctx, "t1", "alice", domain.TeamSettingsPatch{MaxMembers: &tooSmall}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("shrinking below current members error = %v, want ErrInvalidInput", err)
	}

	if _, err := svc.UpdateTeamSettings(ctx, "t1", "bob", domain.TeamSettingsPatch{Name: &name}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("member updating settings error = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteTeamCascade(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 4)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}
	expires := time.Now().Add(time.Hour)
	store.Invitations["inv-1"] = &domain.Invitation{
		ID: "inv-1", TeamID: "t1", InvitedUserID: "carol", Status: domain.RequestPending, ExpiresAt: &expires,
	}
	store.Applications["app-1"] = &domain.Application{
		ID: "app-1", TeamID: "t1", ApplicantID: "dave", Status: domain.RequestPending,
	}

	if err := svc.DeleteTeam(ctx, "t1", "bob"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-owner delete error = %v, want ErrUnauthorized", err)
	}

	if err := svc.DeleteTeam(ctx, "t1", "alice"); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}

	if _, err := svc.GetTeam(ctx, "t1"); !errors.Is(err, domain.ErrTeamNotFound) {
		t.Errorf("GetTeam after delete error = %v, want ErrTeamNotFound", err)
	}
	if len(store.Memberships) != 0 {
		t.Errorf("%d memberships survived the cascade", len(store.Memberships))
	}
	if len(store.UserTeams) != 0 {
		t.Errorf("%d reverse index rows survived the cascade", len(store.UserTeams))
	}
	if len(store.Invitations) != 0 {
		t.Errorf("%d invitations survived the cascade", len(store.Invitations))
	}
	if len(store.Applications) != 0 {
		t.Errorf("%d applications survived the cascade", len(store.Applications))
	}
}

func TestGetTeamMembersPlaceholder(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	store.Profiles["alice"] = domain.Profile{UserID: "alice", Name: "Alice", Email: "alice@example.com"}
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t1", "bob", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	members, err := svc.GetTeamMembers(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTeamMembers: %v", err)
	}
	byID := map[string]domain.TeamMember{}
	for _, m := range members {
		byID[m.UserID] = m
	}
	if byID["alice"].Name != "Alice" {
		t.Errorf("alice name = %q, want profile name", byID["alice"].Name)
	}
	if byID["bob"].Name == "" {
		t.Error("member without profile has empty display name, want placeholder")
	}
}

func TestGetUserTeams(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	seedTeam(store, "t2", "bob", 3)
	svc := newService(store)
	ctx := context.Background()

	if _, err := svc.AddMember(ctx, "t2", "alice", domain.RoleMember); err != nil {
		t.Fatal(err)
	}

	teams, err := svc.GetUserTeams(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserTeams: %v", err)
	}
	if len(teams) != 2 {
		t.Errorf("alice belongs to %d teams, want 2", len(teams))
	}
}

func TestDiscoverPublicTeams(t *testing.T) {
	store := servicetest.NewStore()
	seedTeam(store, "t1", "alice", 3)
	seedTeam(store, "t2", "bob", 1)
	hidden := seedTeam(store, "t3", "carol", 3)
	hidden.Visibility = domain.VisibilityInviteOnly
	svc := newService(store)

	teams, err := svc.DiscoverPublicTeams(context.Background(), domain.TeamFilter{OpenOnly: true})
	if err != nil {
		t.Fatalf("DiscoverPublicTeams: %v", err)
	}
	if len(teams) != 1 || teams[0].ID != "t1" {
		t.Errorf("open public teams = %v, want only t1", teams)
	}
}
