package interfaces

import (
	"context"
	"time"

	"guardian-server/internal/models"

	"github.com/google/uuid"
)

// LeaderboardCache - кеш готового лидерборда.
// Get возвращает (nil, false, nil) при промахе.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]models.LeaderboardPlayer, bool, error)
	Set(ctx context.Context, entries []models.LeaderboardPlayer, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// SessionRepository хранит выданные access токены (по JTI) для отзыва при logout.
type SessionRepository interface {
	SetSession(ctx context.Context, playerID uuid.UUID, td *models.TokenDetails) error
	// GetPlayerIDBySession возвращает models.ErrTokenNotFound, если сессия отозвана или истекла.
	GetPlayerIDBySession(ctx context.Context, accessUUID string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, accessUUID string) error
}
