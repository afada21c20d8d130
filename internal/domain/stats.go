package domain

type StatsResponse struct {
	TotalTeams          int64                `json:"total_teams"`
	ActiveTeams         int64                `json:"active_teams"`
	OpenTeams           int64                `json:"open_teams"`
	TotalMemberships    int64                `json:"total_memberships"`
	PendingInvitations  int64                `json:"pending_invitations"`
	PendingApplications int64                `json:"pending_applications"`
	ChallengeTeams      []ChallengeTeamStats `json:"challenge_teams,omitempty"`
}

type ChallengeTeamStats struct {
	ChallengeID    string `json:"challenge_id"`
	ChallengeTitle string `json:"challenge_title"`
	TeamCount      int64  `json:"team_count"`
	MemberCount    int64  `json:"member_count"`
}
