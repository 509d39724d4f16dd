package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.GuardianTokenRepository = (*pgGuardianTokenRepository)(nil)

const (
	guardianTokenFields = `id, current_progress, is_completed, last_contributor_id, completed_by, completed_at, created_at`

	lockOldestOpenQuery = `
		SELECT ` + guardianTokenFields + `
		FROM guardian_tokens
		WHERE is_completed = false
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE`

	existsOpenQuery = `SELECT EXISTS (SELECT 1 FROM guardian_tokens WHERE is_completed = false)`

	// Правая часть SET видит значения строки до обновления.
	// Нулевой вклад не завершает жетон, даже если прогресс уже на пороге.
	applyContributionQuery = `
		UPDATE guardian_tokens
		SET current_progress    = current_progress + $2::double precision,
		    last_contributor_id = $3::uuid,
		    is_completed        = $2::double precision > 0 AND (current_progress + $2::double precision) >= $5::double precision,
		    completed_by        = CASE WHEN $2::double precision > 0 AND (current_progress + $2::double precision) >= $5::double precision THEN $3::uuid ELSE NULL END,
		    completed_at        = CASE WHEN $2::double precision > 0 AND (current_progress + $2::double precision) >= $5::double precision THEN $4::timestamptz ELSE NULL END
		WHERE id = $1 AND is_completed = false
		RETURNING current_progress, is_completed, completed_at`

	// Ключ advisory-блокировки пополнения: все экземпляры сервера пополняют жетоны по очереди.
	topUpLockKey = int64(0x6775617264) // "guard"

	topUpOpenQuery = `
		INSERT INTO guardian_tokens (id)
		SELECT gen_random_uuid()
		FROM generate_series(1, GREATEST($1::int - (SELECT count(*) FROM guardian_tokens WHERE is_completed = false)::int, 0))`
)

type pgGuardianTokenRepository struct {
	logger *zap.Logger
}

// NewPgGuardianTokenRepository creates a new PostgreSQL-backed GuardianTokenRepository.
func NewPgGuardianTokenRepository(logger *zap.Logger) interfaces.GuardianTokenRepository {
	return &pgGuardianTokenRepository{
		logger: logger.Named("PgGuardianTokenRepo"),
	}
}

func scanGuardianToken(row pgx.Row, token *models.GuardianToken) error {
	return row.Scan(
		&token.ID,
		&token.CurrentProgress,
		&token.IsCompleted,
		&token.LastContributorID,
		&token.CompletedBy,
		&token.CompletedAt,
		&token.CreatedAt,
	)
}

// LockOldestOpen блокирует самый старый открытый жетон.
//
// После ожидания чужой блокировки Postgres перепроверяет WHERE для заблокированной
// строки и при LIMIT 1 может вернуть пустой результат, даже если другие открытые
// жетоны есть. Пустой ответ перепроверяется неблокирующим EXISTS, и выбор
// повторяется, пока открытые жетоны есть. Каждый пустой ответ значит, что
// конкурент завершил жетон, поэтому цикл конечен.
func (r *pgGuardianTokenRepository) LockOldestOpen(ctx context.Context, tx interfaces.DBTX) (*models.GuardianToken, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		token := &models.GuardianToken{}
		err := scanGuardianToken(tx.QueryRow(ctx, lockOldestOpenQuery), token)
		if err == nil {
			r.logger.Debug("Locked oldest open guardian token",
				zap.String("tokenID", token.ID.String()),
				zap.Float64("progress", token.CurrentProgress),
				zap.Int("attempt", attempt))
			return token, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("Failed to lock oldest open guardian token", zap.Error(err))
			return nil, fmt.Errorf("failed to lock oldest open guardian token: %w", err)
		}

		var anyOpen bool
		if err := tx.QueryRow(ctx, existsOpenQuery).Scan(&anyOpen); err != nil {
			r.logger.Error("Failed to check for open guardian tokens", zap.Error(err))
			return nil, fmt.Errorf("failed to check for open guardian tokens: %w", err)
		}
		if !anyOpen {
			return nil, models.ErrNoOpenGuardianToken
		}
		r.logger.Debug("Locked row was completed concurrently, retrying selection", zap.Int("attempt", attempt))
	}
}

// ApplyContribution записывает вклад в заблокированный жетон.
func (r *pgGuardianTokenRepository) ApplyContribution(
	ctx context.Context,
	tx interfaces.DBTX,
	token *models.GuardianToken,
	increment float64,
	playerID uuid.UUID,
	at time.Time,
) (*models.ContributionOutcome, error) {
	if token == nil {
		return nil, errors.New("apply contribution: nil guardian token")
	}

	outcome := &models.ContributionOutcome{TokenID: token.ID, TokenSelected: true}
	err := tx.QueryRow(ctx, applyContributionQuery,
		token.ID, increment, playerID, at.UTC(), models.GuardianTokenCompletionThreshold,
	).Scan(&outcome.Progress, &outcome.Completed, &outcome.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Строка должна быть заблокирована нами, значит это ошибка вызова
			r.logger.Error("Guardian token was not open at write time", zap.String("tokenID", token.ID.String()))
			return nil, fmt.Errorf("guardian token %s is not open: %w", token.ID, models.ErrNoOpenGuardianToken)
		}
		r.logger.Error("Failed to apply contribution", zap.Error(err), zap.String("tokenID", token.ID.String()))
		return nil, fmt.Errorf("failed to apply contribution to guardian token %s: %w", token.ID, err)
	}

	r.logger.Debug("Contribution applied",
		zap.String("tokenID", token.ID.String()),
		zap.String("playerID", playerID.String()),
		zap.Float64("increment", increment),
		zap.Float64("progress", outcome.Progress),
		zap.Bool("completed", outcome.Completed))
	return outcome, nil
}

// GetByID читает жетон без блокировки.
func (r *pgGuardianTokenRepository) GetByID(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (*models.GuardianToken, error) {
	query := `SELECT ` + guardianTokenFields + ` FROM guardian_tokens WHERE id = $1`
	token := &models.GuardianToken{}
	if err := pgxscan.Get(ctx, q, token, query, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get guardian token %s: %w", id, err)
	}
	return token, nil
}

// ListOpen возвращает открытые жетоны в том же порядке, в котором их выбирает LockOldestOpen.
func (r *pgGuardianTokenRepository) ListOpen(ctx context.Context, q interfaces.DBTX, limit int) ([]models.GuardianToken, error) {
	query := `SELECT ` + guardianTokenFields + `
		FROM guardian_tokens
		WHERE is_completed = false
		ORDER BY created_at ASC, id ASC
		LIMIT $1`
	var tokens []models.GuardianToken
	if err := pgxscan.Select(ctx, q, &tokens, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list open guardian tokens: %w", err)
	}
	return tokens, nil
}

// TopUpOpen доводит число открытых жетонов до minOpen и возвращает число созданных.
// Вызывать в транзакции: advisory-блокировка держится до ее конца, поэтому
// параллельные пополнения не создают лишних жетонов.
func (r *pgGuardianTokenRepository) TopUpOpen(ctx context.Context, tx interfaces.DBTX, minOpen int) (int, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, topUpLockKey); err != nil {
		r.logger.Error("Failed to acquire guardian token top-up lock", zap.Error(err))
		return 0, fmt.Errorf("failed to acquire guardian token top-up lock: %w", err)
	}
	tag, err := tx.Exec(ctx, topUpOpenQuery, minOpen)
	if err != nil {
		r.logger.Error("Failed to top up open guardian tokens", zap.Error(err), zap.Int("minOpen", minOpen))
		return 0, fmt.Errorf("failed to top up open guardian tokens: %w", err)
	}
	created := int(tag.RowsAffected())
	if created > 0 {
		r.logger.Info("Guardian tokens created", zap.Int("created", created), zap.Int("minOpen", minOpen))
	}
	return created, nil
}
