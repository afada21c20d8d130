package domain

import (
	"strings"
	"time"
)

type TeamVisibility string

const (
	VisibilityPublic     TeamVisibility = "public"
	VisibilityInviteOnly TeamVisibility = "invite-only"
)

func (v TeamVisibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityInviteOnly:
		return true
	default:
		return false
	}
}

type TeamStatus string

const (
	TeamStatusActive   TeamStatus = "active"
	TeamStatusInactive TeamStatus = "inactive"
	TeamStatusClosed   TeamStatus = "closed"
)

type Team struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ChallengeID     string         `json:"challenge_id"`
	ChallengeTitle  string         `json:"challenge_title"`
	MaxMembers      int            `json:"max_members"`
	CurrentMembers  int            `json:"current_members"`
	Visibility      TeamVisibility `json:"visibility"`
	JoinableEnabled bool           `json:"joinable_enabled"`
	AutoApprove     bool           `json:"auto_approve"`
	Tags            []string       `json:"tags"`
	Status          TeamStatus     `json:"status"`
	CreatedBy       string         `json:"created_by"`
	Admins          []string       `json:"admins"`
	HasSubmitted    bool           `json:"has_submitted"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	SubmissionURL   string         `json:"submission_url,omitempty"`
	CreatedAt       *time.Time     `json:"created_at,omitempty"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
	LastActivity    *time.Time     `json:"last_activity,omitempty"`
}

func (t *Team) IsAdmin(userID string) bool {
	for _, id := range t.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

func (t *Team) IsOwner(userID string) bool {
	return t.CreatedBy == userID
}

func (t *Team) IsFull() bool {
	return t.CurrentMembers >= t.MaxMembers
}

// CreateTeamRequest is the caller-supplied shape of a new team. MaxMembers
// of zero means "use the challenge's team-size cap".
type CreateTeamRequest struct {
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	ChallengeID     string         `json:"challenge_id"`
	MaxMembers      int            `json:"max_members"`
	Visibility      TeamVisibility `json:"visibility"`
	JoinableEnabled bool           `json:"joinable_enabled"`
	AutoApprove     bool           `json:"auto_approve"`
	Tags            []string       `json:"tags"`
	InviteUserIDs   []string       `json:"invite_user_ids"`
}

func (r *CreateTeamRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidInput
	}
	if r.ChallengeID == "" {
		return ErrInvalidInput
	}
	if r.MaxMembers < 0 {
		return ErrInvalidInput
	}
	if r.Visibility == "" {
		r.Visibility = VisibilityPublic
	}
	if !r.Visibility.IsValid() {
		return ErrInvalidInput
	}
	return nil
}

// TeamSettingsPatch carries the only team fields an admin may change.
// Nil pointers mean "leave as is". Anything outside this struct is rejected
// by JSON binding, never silently accepted.
type TeamSettingsPatch struct {
	Name            *string         `json:"name,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Visibility      *TeamVisibility `json:"visibility,omitempty"`
	JoinableEnabled *bool           `json:"joinable_enabled,omitempty"`
	AutoApprove     *bool           `json:"auto_approve,omitempty"`
	Tags            *[]string       `json:"tags,omitempty"`
	MaxMembers      *int            `json:"max_members,omitempty"`
}

func (p *TeamSettingsPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrInvalidInput
	}
	if p.Visibility != nil && !p.Visibility.IsValid() {
		return ErrInvalidInput
	}
	if p.MaxMembers != nil && *p.MaxMembers <= 0 {
		return ErrInvalidInput
	}
	return nil
}

// Apply folds the patch into the team. Capacity may never drop below the
// current member count.
func (p *TeamSettingsPatch) Apply(t *Team) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.MaxMembers != nil && *p.MaxMembers < t.CurrentMembers {
		return ErrInvalidInput
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Visibility != nil {
		t.Visibility = *p.Visibility
	}
	if p.JoinableEnabled != nil {
		t.JoinableEnabled = *p.JoinableEnabled
	}
	if p.AutoApprove != nil {
		t.AutoApprove = *p.AutoApprove
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.MaxMembers != nil {
		t.MaxMembers = *p.MaxMembers
	}
	return nil
}

// TeamFilter narrows public team discovery.
type TeamFilter struct {
	ChallengeID string
	MaxMembers  int
	OpenOnly    bool
}
