package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

// UserTeamsRepository maintains the per-user reverse index of memberships.
// Rows here are a derived projection: they are only ever written in the same
// transaction as the membership write they mirror.
type UserTeamsRepository struct {
	db *database.DB
}

func NewUserTeamsRepository(db *database.DB) *UserTeamsRepository {
	return &UserTeamsRepository{db: db}
}

func (r *UserTeamsRepository) Upsert(ctx context.Context, ut domain.UserTeam) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO user_teams (user_id, team_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, team_id) DO UPDATE
		SET role = EXCLUDED.role, status = EXCLUDED.status
	`, ut.UserID, ut.TeamID, ut.Role, ut.Status)
	if err != nil {
		return fmt.Errorf("failed to upsert user team row: %w", err)
	}

	return nil
}

func (r *UserTeamsRepository) Delete(ctx context.Context, userID, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		DELETE FROM user_teams WHERE user_id = $1 AND team_id = $2
	`, userID, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete user team row: %w", err)
	}

	return nil
}

func (r *UserTeamsRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, "DELETE FROM user_teams WHERE team_id = $1", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team reverse index rows: %w", err)
	}

	return nil
}

// ListTeamsByUser answers "my teams" off the reverse index without scanning
// the teams table.
func (r *UserTeamsRepository) ListTeamsByUser(ctx context.Context, userID string) ([]domain.Team, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.challenge_id, t.challenge_title,
			t.max_members, t.current_members, t.visibility, t.joinable_enabled, t.auto_approve,
			t.tags, t.status, t.created_by, t.admins,
			t.has_submitted, t.submitted_at, t.submission_url,
			t.created_at, t.updated_at, t.last_activity
		FROM user_teams ut
		JOIN teams t ON t.id = ut.team_id
		WHERE ut.user_id = $1 AND ut.status = 'active'
		ORDER BY t.last_activity DESC NULLS LAST
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		var tags, admins pq.StringArray
		if err := rows.Scan(
			&team.ID, &team.Name, &team.Description, &team.ChallengeID, &team.ChallengeTitle,
			&team.MaxMembers, &team.CurrentMembers, &team.Visibility, &team.JoinableEnabled, &team.AutoApprove,
			&tags, &team.Status, &team.CreatedBy, &admins,
			&team.HasSubmitted, &team.SubmittedAt, &team.SubmissionURL,
			&team.CreatedAt, &team.UpdatedAt, &team.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user team: %w", err)
		}
		team.Tags = tags
		team.Admins = admins
		teams = append(teams, team)
	}

	return teams, rows.Err()
}
