package repository

import (
	"context"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/pkg/database"
)

// DirectoryRepository reads profile and challenge data owned by other
// services. Everything here is read-only.
type DirectoryRepository struct {
	db *database.DB
}

func NewDirectoryRepository(db *database.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	conn := r.db.Conn(ctx)

	var p domain.Profile
	err := conn.QueryRowContext(ctx, `
		SELECT user_id, name, email, COALESCE(photo_url, '')
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Name, &p.Email, &p.PhotoURL)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &p, nil
}

func (r *DirectoryRepository) GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	conn := r.db.Conn(ctx)

	var ch domain.Challenge
	err := conn.QueryRowContext(ctx, `
		SELECT id, title, allow_teams, max_team_size
		FROM challenges
		WHERE id = $1
	`, challengeID).Scan(&ch.ID, &ch.Title, &ch.AllowTeams, &ch.MaxTeamSize)
	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &ch, nil
}
