package domain

import "time"

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

type MembershipStatus string

const MembershipActive MembershipStatus = "active"

// Membership is the active association between a user and a team,
// keyed by (team_id, user_id).
type Membership struct {
	TeamID   string           `json:"team_id"`
	UserID   string           `json:"user_id"`
	Role     Role             `json:"role"`
	Status   MembershipStatus `json:"status"`
	JoinedAt *time.Time       `json:"joined_at,omitempty"`
}

// TeamMember is a membership joined with profile display data for listing.
// Display fields come from the profile directory and are never the source
// of truth.
type TeamMember struct {
	UserID   string     `json:"user_id"`
	Role     Role       `json:"role"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	PhotoURL string     `json:"photo_url,omitempty"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// UserTeam is a row of the per-user reverse index: the teams a user belongs
// to with their cached role. Written only alongside membership writes.
type UserTeam struct {
	UserID string           `json:"user_id"`
	TeamID string           `json:"team_id"`
	Role   Role             `json:"role"`
	Status MembershipStatus `json:"status"`
}

// Action names an operation gated by the capability check.
type Action string

const (
	ActionInviteMember  Action = "invite_member"
	ActionReviewRequest Action = "review_request"
	ActionRemoveMember  Action = "remove_member"
	ActionEditSettings  Action = "edit_settings"
	ActionDeleteTeam    Action = "delete_team"
)

// HasCapability is the single place that maps roles to permitted actions.
// Every service-level authorization decision goes through here.
func HasCapability(role Role, action Action) bool {
	switch action {
	case ActionDeleteTeam:
		return role == RoleOwner
	case ActionInviteMember, ActionReviewRequest, ActionRemoveMember, ActionEditSettings:
		return role == RoleOwner || role == RoleAdmin
	default:
		return false
	}
}
