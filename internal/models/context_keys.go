package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey - приватный тип для ключей контекста, чтобы избежать коллизий.
type contextKey string

const (
	// PlayerContextKey используется как ключ для хранения ID игрока из сессии.
	PlayerContextKey contextKey = "playerID"
)

// WithPlayerID кладет ID игрока из сессии в контекст.
func WithPlayerID(ctx context.Context, playerID uuid.UUID) context.Context {
	return context.WithValue(ctx, PlayerContextKey, playerID)
}

// GetPlayerIDFromContext извлекает ID игрока из контекста.
// Возвращает uuid.Nil и false, если сессия анонимная.
func GetPlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	playerID, ok := ctx.Value(PlayerContextKey).(uuid.UUID)
	if !ok || playerID == uuid.Nil {
		return uuid.Nil, false
	}
	return playerID, true
}
