package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrTeamNotFound        = errors.New("team not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("caller lacks the required role")
	ErrCapacityExceeded    = errors.New("team is at maximum capacity")
	ErrAlreadyMember       = errors.New("user is already a team member")
	ErrDuplicateRequest    = errors.New("a pending request already exists for this user and team")
	ErrInvalidState        = errors.New("operation not allowed in the current state")
	ErrOwnerProtected      = errors.New("the team owner cannot be removed; transfer ownership or delete the team")
	ErrContention          = errors.New("operation aborted after repeated write conflicts")
	ErrTeamsNotAllowed     = errors.New("challenge does not allow teams")
	ErrNotJoinable         = errors.New("team is not open for applications")
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
