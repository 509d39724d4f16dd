package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultActionsPageSize = 20
	maxActionsPageSize     = 100
)

// ActionService ведет журнал действий игрока (сбор и переработка).
type ActionService interface {
	RecordAction(ctx context.Context, playerID uuid.UUID, kind models.ActionKind, resource string, amount int) (*models.PlayerAction, error)
	GetPlayerState(ctx context.Context, playerID uuid.UUID) (*models.PlayerState, error)
	ListActions(ctx context.Context, playerID uuid.UUID, cursor string, limit int) ([]models.PlayerAction, string, error)
}

type actionServiceImpl struct {
	db         interfaces.DBTX
	txManager  interfaces.TxManager
	actionRepo interfaces.ActionRepository
	playerRepo interfaces.PlayerRepository
	now        func() time.Time
	logger     *zap.Logger
}

func NewActionService(db interfaces.DBTX, txManager interfaces.TxManager, actionRepo interfaces.ActionRepository, playerRepo interfaces.PlayerRepository, logger *zap.Logger) ActionService {
	return &actionServiceImpl{
		db:         db,
		txManager:  txManager,
		actionRepo: actionRepo,
		playerRepo: playerRepo,
		now:        time.Now,
		logger:     logger.Named("ActionService"),
	}
}

// RecordAction пишет действие в журнал и обновляет last_login игрока в одной транзакции.
func (s *actionServiceImpl) RecordAction(ctx context.Context, playerID uuid.UUID, kind models.ActionKind, resource string, amount int) (*models.PlayerAction, error) {
	if playerID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	if kind != models.ActionCollect && kind != models.ActionRecycle {
		return nil, fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, kind)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return nil, fmt.Errorf("%w: resource is required", models.ErrInvalidInput)
	}

	action := &models.PlayerAction{
		PlayerID: playerID,
		Action:   kind,
		Resource: resource,
		Amount:   amount,
	}
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.playerRepo.TouchLastLogin(ctx, tx, playerID, s.now()); err != nil {
			return err
		}
		return s.actionRepo.Insert(ctx, tx, action)
	})
	if err != nil {
		s.logger.Warn("Failed to record player action", zap.Error(err), zap.String("playerID", playerID.String()), zap.String("action", string(kind)))
		return nil, err
	}

	playerActionsTotal.WithLabelValues(string(kind)).Inc()
	s.logger.Debug("Player action recorded", zap.String("playerID", playerID.String()), zap.String("action", string(kind)), zap.Int("amount", amount))
	return action, nil
}

func (s *actionServiceImpl) GetPlayerState(ctx context.Context, playerID uuid.UUID) (*models.PlayerState, error) {
	if playerID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	return s.actionRepo.GetPlayerState(ctx, s.db, playerID)
}

// ListActions возвращает страницу журнала и курсор следующей страницы (пустой, если страниц больше нет).
func (s *actionServiceImpl) ListActions(ctx context.Context, playerID uuid.UUID, cursor string, limit int) ([]models.PlayerAction, string, error) {
	if playerID == uuid.Nil {
		return nil, "", models.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultActionsPageSize
	}
	if limit > maxActionsPageSize {
		limit = maxActionsPageSize
	}
	return s.actionRepo.ListByPlayer(ctx, s.db, playerID, cursor, limit)
}
