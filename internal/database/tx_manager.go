package database

import (
	"context"
	"fmt"

	"guardian-server/internal/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ interfaces.TxManager = (*PgTxManager)(nil)

// PgTxManager выполняет функции в транзакциях pgx.
type PgTxManager struct {
	db     *pgxpool.Pool
	opts   pgx.TxOptions
	logger *zap.Logger
}

// NewPgTxManager создает менеджер транзакций с уровнем изоляции READ COMMITTED.
// Блокировка строк делается явно (FOR UPDATE), более строгая изоляция не нужна.
func NewPgTxManager(db *pgxpool.Pool, logger *zap.Logger) *PgTxManager {
	return &PgTxManager{
		db:     db,
		opts:   pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
		logger: logger.Named("PgTxManager"),
	}
}

// WithTransaction выполняет функцию в транзакции с автоматическим rollback при ошибке
func (m *PgTxManager) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx interfaces.DBTX) error,
) error {
	tx, err := m.db.BeginTx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// Контекст может быть уже отменен, откатываем на свежем
			if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil {
				m.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(context.Background()); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
			m.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
