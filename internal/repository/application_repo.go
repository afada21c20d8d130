package repository

import (
	"context"
	"fmt"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

type ApplicationRepository struct {
	db *database.DB
}

func NewApplicationRepository(db *database.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Insert(ctx context.Context, app domain.Application) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO applications (id, team_id, applicant_id, message, status, reviewed_at, reviewed_by)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, app.ID, app.TeamID, app.ApplicantID, app.Message, app.Status, app.ReviewedAt, app.ReviewedBy)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, applicationID string) (*domain.Application, error) {
	conn := r.db.Conn(ctx)

	var app domain.Application
	var reviewedBy *string
	err := conn.QueryRowContext(ctx, `
		SELECT id, team_id, applicant_id, message, status, created_at, reviewed_at, reviewed_by
		FROM applications
		WHERE id = $1
	`, applicationID).Scan(&app.ID, &app.TeamID, &app.ApplicantID, &app.Message,
		&app.Status, &app.CreatedAt, &app.ReviewedAt, &reviewedBy)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}
	if reviewedBy != nil {
		app.ReviewedBy = *reviewedBy
	}

	return &app, nil
}

// GetPending finds the applicant's open application for the team, used for
// the duplicate check.
func (r *ApplicationRepository) GetPending(ctx context.Context, teamID, applicantID string) (*domain.Application, error) {
	conn := r.db.Conn(ctx)

	var app domain.Application
	err := conn.QueryRowContext(ctx, `
		SELECT id, team_id, applicant_id, message, status, created_at
		FROM applications
		WHERE team_id = $1 AND applicant_id = $2 AND status = 'pending'
	`, teamID, applicantID).Scan(&app.ID, &app.TeamID, &app.ApplicantID,
		&app.Message, &app.Status, &app.CreatedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &app, nil
}

// Resolve marks a pending application accepted or declined. Reviewed
// applications are immutable history, so only pending rows match.
func (r *ApplicationRepository) Resolve(ctx context.Context, applicationID string, status domain.RequestStatus, reviewerID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, reviewed_at = NOW(), reviewed_by = $3
		WHERE id = $1 AND status = 'pending'
	`, applicationID, status, reviewerID)
	if err != nil {
		return fmt.Errorf("failed to resolve application: %w", err)
	}

	return nil
}

func (r *ApplicationRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, "DELETE FROM applications WHERE team_id = $1", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team applications: %w", err)
	}

	return nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, applicantID string) ([]domain.UserApplication, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT a.id, a.team_id, a.applicant_id, a.message, a.status,
			a.created_at, a.reviewed_at, COALESCE(a.reviewed_by, ''),
			t.name, t.challenge_title
		FROM applications a
		JOIN teams t ON t.id = a.team_id
		WHERE a.applicant_id = $1
		ORDER BY a.created_at DESC
	`, applicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.UserApplication
	for rows.Next() {
		var app domain.UserApplication
		if err := rows.Scan(&app.ID, &app.TeamID, &app.ApplicantID, &app.Message, &app.Status,
			&app.CreatedAt, &app.ReviewedAt, &app.ReviewedBy,
			&app.TeamName, &app.ChallengeTitle); err != nil {
			return nil, fmt.Errorf("failed to scan user application: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

// ListPendingByTeam is the admin review queue.
func (r *ApplicationRepository) ListPendingByTeam(ctx context.Context, teamID string) ([]domain.Application, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, team_id, applicant_id, message, status, created_at
		FROM applications
		WHERE team_id = $1 AND status = 'pending'
		ORDER BY created_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(&app.ID, &app.TeamID, &app.ApplicantID,
			&app.Message, &app.Status, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}
