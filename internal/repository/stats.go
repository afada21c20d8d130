package repository

import (
	"context"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

type StatsRepository interface {
	GetTotalStats(ctx context.Context) (*domain.StatsResponse, error)
	GetChallengeTeamStats(ctx context.Context) ([]domain.ChallengeTeamStats, error)
}

type statsRepository struct {
	db *database.DB
}

func NewStatsRepository(db *database.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) GetTotalStats(ctx context.Context) (*domain.StatsResponse, error) {
	conn := r.db.Conn(ctx)

	var stats domain.StatsResponse

	err := conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM teams) as total_teams,
			(SELECT COUNT(*) FROM teams WHERE status = 'active') as active_teams,
			(SELECT COUNT(*) FROM teams WHERE status = 'active'
				AND visibility = 'public' AND current_members < max_members) as open_teams,
			(SELECT COUNT(*) FROM memberships WHERE status = 'active') as total_memberships,
			(SELECT COUNT(*) FROM invitations WHERE status = 'pending' AND expires_at > NOW()) as pending_invitations,
			(SELECT COUNT(*) FROM applications WHERE status = 'pending') as pending_applications
	`).Scan(
		&stats.TotalTeams,
		&stats.ActiveTeams,
		&stats.OpenTeams,
		&stats.TotalMemberships,
		&stats.PendingInvitations,
		&stats.PendingApplications,
	)

	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *statsRepository) GetChallengeTeamStats(ctx context.Context) ([]domain.ChallengeTeamStats, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT challenge_id, challenge_title,
			COUNT(*) as team_count,
			COALESCE(SUM(current_members), 0) as member_count
		FROM teams
		GROUP BY challenge_id, challenge_title
		ORDER BY team_count DESC, challenge_id
	`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.ChallengeTeamStats
	for rows.Next() {
		var s domain.ChallengeTeamStats
		if err := rows.Scan(&s.ChallengeID, &s.ChallengeTitle, &s.TeamCount, &s.MemberCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
