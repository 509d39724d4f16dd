package service

import (
	"context"
	"encoding/json"
	"fmt"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"go.uber.org/zap"
)

// CompletionEventHandler реагирует на завершение жетона: сбрасывает кеш лидерборда,
// пополняет открытые жетоны и рассылает событие realtime клиентам.
type CompletionEventHandler struct {
	leaderboard LeaderboardService
	catalog     CatalogService
	broadcaster interfaces.Broadcaster
	minOpen     int
	logger      *zap.Logger
}

func NewCompletionEventHandler(leaderboard LeaderboardService, catalog CatalogService, broadcaster interfaces.Broadcaster, minOpen int, logger *zap.Logger) *CompletionEventHandler {
	return &CompletionEventHandler{
		leaderboard: leaderboard,
		catalog:     catalog,
		broadcaster: broadcaster,
		minOpen:     minOpen,
		logger:      logger.Named("CompletionEventHandler"),
	}
}

// HandleTokenCompleted возвращает ошибку только если не удалось сбросить кеш.
func (h *CompletionEventHandler) HandleTokenCompleted(ctx context.Context, event models.GuardianTokenCompletedEvent) error {
	log := h.logger.With(zap.String("tokenID", event.TokenID.String()), zap.String("playerID", event.PlayerID.String()))

	if err := h.leaderboard.InvalidateCache(ctx); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard cache: %w", err)
	}

	if h.catalog != nil {
		if _, err := h.catalog.EnsureOpenTokens(ctx, h.minOpen); err != nil {
			log.Warn("Failed to replenish open guardian tokens", zap.Error(err))
		}
	}

	if h.broadcaster != nil {
		msg, err := json.Marshal(models.RealtimeMessage{Type: models.RealtimeTypeTokenCompleted, Payload: event})
		if err != nil {
			log.Error("Failed to marshal realtime message", zap.Error(err))
			return nil
		}
		h.broadcaster.Broadcast(msg)
	}

	log.Debug("Guardian token completed event handled")
	return nil
}
