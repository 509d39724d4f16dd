package database

import (
	"context"
	"fmt"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

var _ interfaces.TrashItemRepository = (*pgTrashItemRepository)(nil)

type pgTrashItemRepository struct {
	logger *zap.Logger
}

// NewPgTrashItemRepository creates a new PostgreSQL-backed TrashItemRepository.
func NewPgTrashItemRepository(logger *zap.Logger) interfaces.TrashItemRepository {
	return &pgTrashItemRepository{
		logger: logger.Named("PgTrashItemRepo"),
	}
}

// Exists проверяет наличие предмета в каталоге.
func (r *pgTrashItemRepository) Exists(ctx context.Context, q interfaces.DBTX, itemID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trash_items WHERE id = $1)`
	var exists bool
	if err := q.QueryRow(ctx, query, itemID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check trash item existence", zap.Error(err), zap.Int64("itemID", itemID))
		return false, fmt.Errorf("failed to check trash item %d: %w", itemID, err)
	}
	return exists, nil
}

func (r *pgTrashItemRepository) GetByID(ctx context.Context, q interfaces.DBTX, itemID int64) (*models.TrashItem, error) {
	query := `SELECT id, category, base_value, required_accuracy FROM trash_items WHERE id = $1`
	item := &models.TrashItem{}
	if err := pgxscan.Get(ctx, q, item, query, itemID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrTrashItemNotFound
		}
		r.logger.Error("Failed to get trash item", zap.Error(err), zap.Int64("itemID", itemID))
		return nil, fmt.Errorf("failed to get trash item %d: %w", itemID, err)
	}
	return item, nil
}

func (r *pgTrashItemRepository) List(ctx context.Context, q interfaces.DBTX) ([]models.TrashItem, error) {
	query := `SELECT id, category, base_value, required_accuracy FROM trash_items ORDER BY id`
	items := make([]models.TrashItem, 0)
	if err := pgxscan.Select(ctx, q, &items, query); err != nil {
		r.logger.Error("Failed to list trash items", zap.Error(err))
		return nil, fmt.Errorf("failed to list trash items: %w", err)
	}
	return items, nil
}
