package service

import (
	"context"
	"log/slog"

	"github.com/firiho/genlink-teams/internal/domain"
	"github.com/firiho/genlink-teams/internal/repository"
)

type StatsService struct {
	statsRepo repository.StatsRepository
	logger    *slog.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, logger *slog.Logger) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		logger:    logger,
	}
}

func (s *StatsService) GetStats(ctx context.Context, includeDetails bool) (*domain.StatsResponse, error) {
	stats, err := s.statsRepo.GetTotalStats(ctx)
	if err != nil {
		return nil, err
	}

	if includeDetails {
		challengeStats, err := s.statsRepo.GetChallengeTeamStats(ctx)
		if err != nil {
			s.logger.Warn("failed to get per-challenge team stats", "error", err)
		} else {
			stats.ChallengeTeams = challengeStats
		}
	}

	s.logger.Info("stats retrieved",
		"teams", stats.TotalTeams,
		"open_teams", stats.OpenTeams,
		"memberships", stats.TotalMemberships)

	return stats, nil
}
