package domain

import "time"

type Application struct {
	ID          string        `json:"id"`
	TeamID      string        `json:"team_id"`
	ApplicantID string        `json:"applicant_id"`
	Message     string        `json:"message,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy  string        `json:"reviewed_by,omitempty"`
}

type CreateApplicationRequest struct {
	Message string `json:"message"`
	// JoinToken is an opaque joinable-link token issued outside this
	// service. Its presence lets an applicant through the visibility gate
	// of an invite-only team; the token itself is validated upstream.
	JoinToken string `json:"join_token,omitempty"`
}

type ReviewApplicationRequest struct {
	Decision InvitationDecision `json:"decision"`
}

// UserApplication joins an application with team display data for the
// "my applications" listing.
type UserApplication struct {
	Application
	TeamName       string `json:"team_name"`
	ChallengeTitle string `json:"challenge_title"`
}
