package domain

import "testing"

func TestHasCapability(t *testing.T) {
	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleOwner, ActionDeleteTeam, true},
		{RoleOwner, ActionInviteMember, true},
		{RoleOwner, ActionReviewRequest, true},
		{RoleOwner, ActionRemoveMember, true},
		{RoleOwner, ActionEditSettings, true},
		{RoleAdmin, ActionDeleteTeam, false},
		{RoleAdmin, ActionInviteMember, true},
		{RoleAdmin, ActionReviewRequest, true},
		{RoleAdmin, ActionRemoveMember, true},
		{RoleAdmin, ActionEditSettings, true},
		{RoleMember, ActionDeleteTeam, false},
		{RoleMember, ActionInviteMember, false},
		{RoleMember, ActionReviewRequest, false},
		{RoleMember, ActionRemoveMember, false},
		{RoleMember, ActionEditSettings, false},
		{RoleMember, Action("unknown"), false},
	}

	for _, tt := range tests {
		if got := HasCapability(tt.role, tt.action); got != tt.want {
			t.Errorf("HasCapability(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}
