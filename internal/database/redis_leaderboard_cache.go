package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.LeaderboardCache = (*redisLeaderboardCache)(nil)

const leaderboardCacheKey = "guardian:leaderboard:v1"

type redisLeaderboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLeaderboardCache creates a Redis-backed LeaderboardCache.
func NewRedisLeaderboardCache(client *redis.Client, logger *zap.Logger) interfaces.LeaderboardCache {
	return &redisLeaderboardCache{
		client: client,
		logger: logger.Named("RedisLeaderboardCache"),
	}
}

func (c *redisLeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardPlayer, bool, error) {
	raw, err := c.client.Get(ctx, leaderboardCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get leaderboard from redis: %w", err)
	}

	var entries []models.LeaderboardPlayer
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Битый кеш считаем промахом
		c.logger.Warn("Failed to unmarshal cached leaderboard, treating as miss", zap.Error(err))
		return nil, false, nil
	}
	return entries, true, nil
}

func (c *redisLeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardPlayer, ttl time.Duration) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	if err := c.client.Set(ctx, leaderboardCacheKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set leaderboard in redis: %w", err)
	}
	c.logger.Debug("Leaderboard cached", zap.Int("entries", len(entries)), zap.Duration("ttl", ttl))
	return nil
}

func (c *redisLeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, leaderboardCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}
	c.logger.Debug("Leaderboard cache invalidated")
	return nil
}
