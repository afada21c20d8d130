package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

const teamColumns = `
	id, name, description, challenge_id, challenge_title,
	max_members, current_members, visibility, joinable_enabled, auto_approve,
	tags, status, created_by, admins,
	has_submitted, submitted_at, submission_url,
	created_at, updated_at, last_activity`

type TeamRepository struct {
	db *database.DB
}

func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO teams (
			id, name, description, challenge_id, challenge_title,
			max_members, current_members, visibility, joinable_enabled, auto_approve,
			tags, status, created_by, admins
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, team.ID, team.Name, team.Description, team.ChallengeID, team.ChallengeTitle,
		team.MaxMembers, team.CurrentMembers, team.Visibility, team.JoinableEnabled, team.AutoApprove,
		pq.Array(team.Tags), team.Status, team.CreatedBy, pq.Array(team.Admins))
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}

	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	return r.get(ctx, teamID, false)
}

// GetByIDForUpdate locks the team row for the rest of the transaction.
// Every capacity-sensitive write goes through this lock so that concurrent
// joins on the same team are serialized.
func (r *TeamRepository) GetByIDForUpdate(ctx context.Context, teamID string) (*domain.Team, error) {
	return r.get(ctx, teamID, true)
}

func (r *TeamRepository) get(ctx context.Context, teamID string, forUpdate bool) (*domain.Team, error) {
	conn := r.db.Conn(ctx)

	query := "SELECT " + teamColumns + " FROM teams WHERE id = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	var team domain.Team
	var tags, admins pq.StringArray
	err := conn.QueryRowContext(ctx, query, teamID).Scan(
		&team.ID, &team.Name, &team.Description, &team.ChallengeID, &team.ChallengeTitle,
		&team.MaxMembers, &team.CurrentMembers, &team.Visibility, &team.JoinableEnabled, &team.AutoApprove,
		&tags, &team.Status, &team.CreatedBy, &admins,
		&team.HasSubmitted, &team.SubmittedAt, &team.SubmissionURL,
		&team.CreatedAt, &team.UpdatedAt, &team.LastActivity,
	)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}
	team.Tags = tags
	team.Admins = admins

	return &team, nil
}

func (r *TeamRepository) UpdateSettings(ctx context.Context, team *domain.Team) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE teams
		SET name = $2, description = $3, visibility = $4, joinable_enabled = $5,
			auto_approve = $6, tags = $7, max_members = $8, updated_at = NOW()
		WHERE id = $1
	`, team.ID, team.Name, team.Description, team.Visibility, team.JoinableEnabled,
		team.AutoApprove, pq.Array(team.Tags), team.MaxMembers)
	if err != nil {
		return fmt.Errorf("failed to update team settings: %w", err)
	}

	return nil
}

// AdjustMemberCount moves current_members by delta and bumps the activity
// timestamps. Callers hold the row lock from GetByIDForUpdate.
func (r *TeamRepository) AdjustMemberCount(ctx context.Context, teamID string, delta int) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE teams
		SET current_members = current_members + $2, last_activity = NOW(), updated_at = NOW()
		WHERE id = $1
	`, teamID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust member count: %w", err)
	}

	return nil
}

func (r *TeamRepository) SetAdmins(ctx context.Context, teamID string, admins []string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE teams SET admins = $2, updated_at = NOW() WHERE id = $1
	`, teamID, pq.Array(admins))
	if err != nil {
		return fmt.Errorf("failed to set team admins: %w", err)
	}

	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, "DELETE FROM teams WHERE id = $1", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// ListPublic returns active public teams for discovery, newest first.
func (r *TeamRepository) ListPublic(ctx context.Context, filter domain.TeamFilter) ([]domain.Team, error) {
	query := "SELECT " + teamColumns + ` FROM teams
		WHERE visibility = 'public' AND status = 'active'`

	var args []interface{}
	if filter.ChallengeID != "" {
		args = append(args, filter.ChallengeID)
		query += fmt.Sprintf(" AND challenge_id = $%d", len(args))
	}
	if filter.MaxMembers > 0 {
		args = append(args, filter.MaxMembers)
		query += fmt.Sprintf(" AND max_members <= $%d", len(args))
	}
	if filter.OpenOnly {
		query += " AND current_members < max_members"
	}
	query += " ORDER BY created_at DESC"

	conn := r.db.Conn(ctx)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query public teams: %w", err)
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
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		team.Tags = tags
		team.Admins = admins
		teams = append(teams, team)
	}

	return teams, rows.Err()
}
