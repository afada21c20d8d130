package domain

// Profile is read-only display data owned by the profile service.
type Profile struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// PlaceholderProfile is used when a user has no profile row. A missing
// profile never fails a membership operation.
func PlaceholderProfile(userID string) Profile {
	return Profile{
		UserID: userID,
		Name:   "Unknown participant",
	}
}

// Challenge is the slice of challenge data this service consults at team
// creation. Owned by the challenge service.
type Challenge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AllowTeams  bool   `json:"allow_teams"`
	MaxTeamSize int    `json:"max_team_size"`
}
