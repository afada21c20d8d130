package repository

import (
	"context"
	"fmt"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

type MembershipRepository struct {
	db *database.DB
}

func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Insert(ctx context.Context, m domain.Membership) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		INSERT INTO memberships (team_id, user_id, role, status)
		VALUES ($1, $2, $3, $4)
	`, m.TeamID, m.UserID, m.Role, m.Status)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

func (r *MembershipRepository) Get(ctx context.Context, teamID, userID string) (*domain.Membership, error) {
	conn := r.db.Conn(ctx)

	var m domain.Membership
	err := conn.QueryRowContext(ctx, `
		SELECT team_id, user_id, role, status, joined_at
		FROM memberships
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&m.TeamID, &m.UserID, &m.Role, &m.Status, &m.JoinedAt)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &m, nil
}

func (r *MembershipRepository) Delete(ctx context.Context, teamID, userID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, `
		DELETE FROM memberships WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return nil
}

func (r *MembershipRepository) DeleteByTeam(ctx context.Context, teamID string) error {
	conn := r.db.Conn(ctx)

	_, err := conn.ExecContext(ctx, "DELETE FROM memberships WHERE team_id = $1", teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team memberships: %w", err)
	}

	return nil
}

// ListMembers returns the roster joined with profile display data. Users
// without a profile row get empty display fields; the service substitutes
// placeholders.
func (r *MembershipRepository) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT m.user_id, m.role, m.joined_at,
			COALESCE(p.name, ''), COALESCE(p.email, ''), COALESCE(p.photo_url, '')
		FROM memberships m
		LEFT JOIN profiles p ON p.user_id = m.user_id
		WHERE m.team_id = $1 AND m.status = 'active'
		ORDER BY m.joined_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var member domain.TeamMember
		if err := rows.Scan(&member.UserID, &member.Role, &member.JoinedAt,
			&member.Name, &member.Email, &member.PhotoURL); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// CountActive exists for operational verification of the counter invariant.
func (r *MembershipRepository) CountActive(ctx context.Context, teamID string) (int, error) {
	conn := r.db.Conn(ctx)

	var count int
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM memberships WHERE team_id = $1 AND status = 'active'
	`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	return count, nil
}
