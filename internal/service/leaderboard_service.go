package service

import (
	"context"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"go.uber.org/zap"
)

// LeaderboardLimit - максимум игроков в ответе лидерборда.
const LeaderboardLimit = 100

// LeaderboardService отдает рейтинг игроков.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardPlayer, error)
	InvalidateCache(ctx context.Context) error
}

type leaderboardServiceImpl struct {
	db         interfaces.DBTX
	playerRepo interfaces.PlayerRepository
	cache      interfaces.LeaderboardCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewLeaderboardService создает сервис лидерборда. cache может быть nil.
func NewLeaderboardService(db interfaces.DBTX, playerRepo interfaces.PlayerRepository, cache interfaces.LeaderboardCache, cacheTTL time.Duration, logger *zap.Logger) LeaderboardService {
	return &leaderboardServiceImpl{
		db:         db,
		playerRepo: playerRepo,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger.Named("LeaderboardService"),
	}
}

// GetLeaderboard читает кеш, а при промахе или ошибке кеша идет в базу.
func (s *leaderboardServiceImpl) GetLeaderboard(ctx context.Context) ([]models.LeaderboardPlayer, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		entries, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			leaderboardCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Leaderboard cache read failed, falling back to database", zap.Error(err))
		case ok:
			leaderboardCacheTotal.WithLabelValues("hit").Inc()
			return entries, nil
		default:
			leaderboardCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	entries, err := s.playerRepo.ListLeaderboard(ctx, s.db, LeaderboardLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, entries, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to populate leaderboard cache", zap.Error(err))
		}
	}
	return entries, nil
}

// InvalidateCache сбрасывает кеш, например после завершения жетона.
func (s *leaderboardServiceImpl) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
