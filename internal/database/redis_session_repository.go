package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisSessionRepository implements SessionRepository
var _ interfaces.SessionRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionRepository creates a new Redis-backed SessionRepository.
func NewRedisSessionRepository(client *redis.Client, logger *zap.Logger) interfaces.SessionRepository {
	return &redisSessionRepository{
		client: client,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(accessUUID string) string {
	return fmt.Sprintf("session_uuid:%s", accessUUID)
}

// SetSession хранит AccessUUID -> PlayerID до истечения токена.
func (r *redisSessionRepository) SetSession(ctx context.Context, playerID uuid.UUID, td *models.TokenDetails) error {
	ttl := time.Until(time.Unix(td.AtExpires, 0))
	if ttl <= 0 {
		return models.ErrTokenExpired
	}
	if err := r.client.Set(ctx, sessionKey(td.AccessUUID), playerID.String(), ttl).Err(); err != nil {
		r.logger.Error("Failed to store session in redis", zap.Error(err), zap.String("playerID", playerID.String()))
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	r.logger.Debug("Session stored", zap.String("playerID", playerID.String()), zap.Duration("ttl", ttl))
	return nil
}

func (r *redisSessionRepository) GetPlayerIDBySession(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	raw, err := r.client.Get(ctx, sessionKey(accessUUID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, models.ErrTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	playerID, err := uuid.Parse(raw)
	if err != nil {
		r.logger.Error("Invalid player ID stored for session", zap.String("value", raw), zap.Error(err))
		return uuid.Nil, fmt.Errorf("invalid player id in session store: %w", err)
	}
	return playerID, nil
}

func (r *redisSessionRepository) DeleteSession(ctx context.Context, accessUUID string) error {
	deleted, err := r.client.Del(ctx, sessionKey(accessUUID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	if deleted == 0 {
		return models.ErrTokenNotFound
	}
	return nil
}
