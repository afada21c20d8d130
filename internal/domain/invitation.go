package domain

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

type Invitation struct {
	ID            string        `json:"id"`
	TeamID        string        `json:"team_id"`
	InvitedUserID string        `json:"invited_user_id"`
	InvitedBy     string        `json:"invited_by"`
	Message       string        `json:"message,omitempty"`
	Status        RequestStatus `json:"status"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
}

// IsExpired reports whether a pending invitation has passed its expiry.
// Expired invitations are treated as implicitly declined.
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == RequestPending && i.ExpiresAt != nil && i.ExpiresAt.Before(now)
}

type CreateInvitationRequest struct {
	InvitedUserID string `json:"invited_user_id"`
	Message       string `json:"message"`
}

type InvitationDecision string

const (
	DecisionAccept  InvitationDecision = "accepted"
	DecisionDecline InvitationDecision = "declined"
)

func (d InvitationDecision) IsValid() bool {
	return d == DecisionAccept || d == DecisionDecline
}

type RespondInvitationRequest struct {
	Decision InvitationDecision `json:"decision"`
}

// UserInvitation joins a pending invitation with team display data for
// the "my invitations" listing.
type UserInvitation struct {
	Invitation
	TeamName       string `json:"team_name"`
	ChallengeTitle string `json:"challenge_title"`
}
