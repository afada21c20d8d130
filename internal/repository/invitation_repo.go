package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

type InvitationRepository struct {
	db *database.DB
}

func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Insert(ctx context.Context, inv domain.Invitation) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO invitations (id, team_id, invited_user_id, invited_by, message, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, inv.ID, inv.TeamID, inv.InvitedUserID, inv.InvitedBy, inv.Message, inv.Status, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert invitation: %w", err)
	}

	return nil
}

func (r *InvitationRepository) GetByID(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	conn := r.db.Conn(ctx)

	var inv domain.Invitation
	err := conn.QueryRowContext(ctx, `
		SELECT id, team_id, invited_user_id, invited_by, message, status, created_at, expires_at
		FROM invitations
		WHERE id = $1
	`, invitationID).Scan(&inv.ID, &inv.TeamID, &inv.InvitedUserID, &inv.InvitedBy,
		&inv.Message, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &inv, nil
}

// GetPending finds an unexpired pending invitation for (team, user), used
// for the duplicate check.
func (r *InvitationRepository) GetPending(ctx context.Context, teamID, userID string) (*domain.Invitation, error) {
	conn := r.db.Conn(ctx)

	var inv domain.Invitation
	err := conn.QueryRowContext(ctx, `
		SELECT id, team_id, invited_user_id, invited_by, message, status, created_at, expires_at
		FROM invitations
		WHERE team_id = $1 AND invited_user_id = $2 AND status = 'pending' AND expires_at > NOW()
	`, teamID, userID).Scan(&inv.ID, &inv.TeamID, &inv.InvitedUserID, &inv.InvitedBy,
		&inv.Message, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &inv, nil
}

func (r *InvitationRepository) UpdateStatus(ctx context.Context, invitationID string, status domain.RequestStatus) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		UPDATE invitations SET status = $2 WHERE id = $1
	`, invitationID, status)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}

	return nil
}

func (r *InvitationRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, "DELETE FROM invitations WHERE team_id = $1", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team invitations: %w", err)
	}

	return nil
}

// ListPendingByUser returns a user's open invitations with team display
// data, soonest-to-expire first.
func (r *InvitationRepository) ListPendingByUser(ctx context.Context, userID string, now time.Time) ([]domain.UserInvitation, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT i.id, i.team_id, i.invited_user_id, i.invited_by, i.message, i.status,
			i.created_at, i.expires_at, t.name, t.challenge_title
		FROM invitations i
		JOIN teams t ON t.id = i.team_id
		WHERE i.invited_user_id = $1 AND i.status = 'pending' AND i.expires_at > $2
		ORDER BY i.expires_at
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query user invitations: %w", err)
	}
	defer rows.Close()

	var invitations []domain.UserInvitation
	for rows.Next() {
		var inv domain.UserInvitation
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.InvitedUserID, &inv.InvitedBy,
			&inv.Message, &inv.Status, &inv.CreatedAt, &inv.ExpiresAt,
			&inv.TeamName, &inv.ChallengeTitle); err != nil {
			return nil, fmt.Errorf("failed to scan user invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}
