package database

import (
	"context"
	"fmt"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"
	"guardian-server/shared/utils"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.ActionRepository = (*pgActionRepository)(nil)

type pgActionRepository struct {
	logger *zap.Logger
}

// NewPgActionRepository creates a new PostgreSQL-backed ActionRepository.
func NewPgActionRepository(logger *zap.Logger) interfaces.ActionRepository {
	return &pgActionRepository{
		logger: logger.Named("PgActionRepo"),
	}
}

func (r *pgActionRepository) Insert(ctx context.Context, q interfaces.DBTX, action *models.PlayerAction) error {
	query := `INSERT INTO player_actions (player_id, action, resource, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := q.QueryRow(ctx, query, action.PlayerID, string(action.Action), action.Resource, action.Amount).
		Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert player action", zap.Error(err), zap.String("playerID", action.PlayerID.String()))
		return fmt.Errorf("failed to insert player action: %w", err)
	}
	return nil
}

// GetPlayerState суммирует журнал. Игрок без записей получает нули.
func (r *pgActionRepository) GetPlayerState(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID) (*models.PlayerState, error) {
	query := `SELECT
			COALESCE(SUM(amount) FILTER (WHERE action = 'collect'), 0) AS collected_total,
			COALESCE(SUM(amount) FILTER (WHERE action = 'recycle'), 0) AS recycled_total
		FROM player_actions
		WHERE player_id = $1`
	state := &models.PlayerState{PlayerID: playerID}
	if err := q.QueryRow(ctx, query, playerID).Scan(&state.CollectedTotal, &state.RecycledTotal); err != nil {
		r.logger.Error("Failed to aggregate player state", zap.Error(err), zap.String("playerID", playerID.String()))
		return nil, fmt.Errorf("failed to aggregate player state: %w", err)
	}
	return state, nil
}

// ListByPlayer возвращает страницу журнала (created_at DESC, id DESC) и курсор следующей страницы.
func (r *pgActionRepository) ListByPlayer(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, cursor string, limit int) ([]models.PlayerAction, string, error) {
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	// Берем на одну запись больше, чтобы понять, есть ли следующая страница
	fetch := limit + 1
	actions := make([]models.PlayerAction, 0, fetch)
	if cursorID == 0 {
		query := `SELECT id, player_id, action, resource, amount, created_at
			FROM player_actions
			WHERE player_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		err = pgxscan.Select(ctx, q, &actions, query, playerID, fetch)
	} else {
		query := `SELECT id, player_id, action, resource, amount, created_at
			FROM player_actions
			WHERE player_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`
		err = pgxscan.Select(ctx, q, &actions, query, playerID, cursorTime, cursorID, fetch)
	}
	if err != nil {
		r.logger.Error("Failed to list player actions", zap.Error(err), zap.String("playerID", playerID.String()))
		return nil, "", fmt.Errorf("failed to list player actions: %w", err)
	}

	nextCursor := ""
	if len(actions) > limit {
		actions = actions[:limit]
		last := actions[len(actions)-1]
		nextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return actions, nextCursor, nil
}
