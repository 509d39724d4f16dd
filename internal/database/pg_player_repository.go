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
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgPlayerRepository implements PlayerRepository
var _ interfaces.PlayerRepository = (*pgPlayerRepository)(nil)

const (
	pgUniqueViolation = "23505"

	playerFields = `id, username, password_hash, wallet_address, guardian_tokens_completed, skill_rating, last_login, created_at`
)

type pgPlayerRepository struct {
	logger *zap.Logger
}

// NewPgPlayerRepository creates a new PostgreSQL-backed PlayerRepository.
func NewPgPlayerRepository(logger *zap.Logger) interfaces.PlayerRepository {
	return &pgPlayerRepository{
		logger: logger.Named("PgPlayerRepo"),
	}
}

// Create inserts a new player. ID генерируется, если не задан.
func (r *pgPlayerRepository) Create(ctx context.Context, q interfaces.DBTX, player *models.Player) error {
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	query := `INSERT INTO players (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING guardian_tokens_completed, skill_rating, last_login, created_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", player.Username))

	err := q.QueryRow(ctx, query, player.ID, player.Username, player.PasswordHash).
		Scan(&player.GuardianTokensCompleted, &player.SkillRating, &player.LastLogin, &player.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.logger.Warn("Attempted to create duplicate player", zap.String("username", player.Username), zap.String("constraint", pgErr.ConstraintName))
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create player in postgres", zap.Error(err), zap.String("username", player.Username))
		return fmt.Errorf("failed to create player in postgres: %w", err)
	}
	r.logger.Info("Player created successfully", zap.String("playerID", player.ID.String()), zap.String("username", player.Username))
	return nil
}

func (r *pgPlayerRepository) GetByID(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (*models.Player, error) {
	query := `SELECT ` + playerFields + ` FROM players WHERE id = $1`
	player := &models.Player{}
	if err := pgxscan.Get(ctx, q, player, query, id); err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Player not found by ID", zap.String("playerID", id.String()))
			return nil, models.ErrPlayerNotFound
		}
		r.logger.Error("Failed to get player by ID", zap.Error(err), zap.String("playerID", id.String()))
		return nil, fmt.Errorf("failed to get player by id from postgres: %w", err)
	}
	return player, nil
}

func (r *pgPlayerRepository) Exists(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.logger.Error("Failed to check player existence", zap.Error(err), zap.String("playerID", id.String()))
		return false, fmt.Errorf("failed to check player existence: %w", err)
	}
	return exists, nil
}

func (r *pgPlayerRepository) GetByUsername(ctx context.Context, q interfaces.DBTX, username string) (*models.Player, error) {
	query := `SELECT ` + playerFields + ` FROM players WHERE username = $1`
	player := &models.Player{}
	if err := pgxscan.Get(ctx, q, player, query, username); err != nil {
		if pgxscan.NotFound(err) {
			r.logger.Debug("Player not found by username", zap.String("username", username))
			return nil, models.ErrPlayerNotFound
		}
		r.logger.Error("Failed to get player by username", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get player by username from postgres: %w", err)
	}
	return player, nil
}

// ApplyTokenCompletion начисляет игроку завершенный жетон в рамках транзакции вклада.
func (r *pgPlayerRepository) ApplyTokenCompletion(ctx context.Context, tx interfaces.DBTX, playerID uuid.UUID, ratingDelta float64, at time.Time) error {
	query := `UPDATE players
		SET guardian_tokens_completed = guardian_tokens_completed + 1,
		    skill_rating = skill_rating + $2,
		    last_login = $3
		WHERE id = $1`
	tag, err := tx.Exec(ctx, query, playerID, ratingDelta, at.UTC())
	if err != nil {
		r.logger.Error("Failed to apply token completion to player", zap.Error(err), zap.String("playerID", playerID.String()))
		return fmt.Errorf("failed to update player stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Player for token completion not found", zap.String("playerID", playerID.String()))
		return models.ErrPlayerNotFound
	}
	r.logger.Info("Player credited with guardian token completion", zap.String("playerID", playerID.String()))
	return nil
}

func (r *pgPlayerRepository) TouchLastLogin(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, at time.Time) error {
	tag, err := q.Exec(ctx, `UPDATE players SET last_login = $2 WHERE id = $1`, playerID, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to update last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPlayerNotFound
	}
	return nil
}

func (r *pgPlayerRepository) SetWalletAddress(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, address string) error {
	tag, err := q.Exec(ctx, `UPDATE players SET wallet_address = $2 WHERE id = $1`, playerID, address)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.logger.Warn("Wallet address already linked", zap.String("playerID", playerID.String()))
			return models.ErrWalletAlreadyLinked
		}
		r.logger.Error("Failed to set wallet address", zap.Error(err), zap.String("playerID", playerID.String()))
		return fmt.Errorf("failed to set wallet address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPlayerNotFound
	}
	return nil
}

// ListLeaderboard - (завершенные жетоны DESC, рейтинг DESC), имя как стабильный хвост сортировки.
func (r *pgPlayerRepository) ListLeaderboard(ctx context.Context, q interfaces.DBTX, limit int) ([]models.LeaderboardPlayer, error) {
	query := `SELECT id, username, wallet_address, guardian_tokens_completed, skill_rating, last_login
		FROM players
		ORDER BY guardian_tokens_completed DESC, skill_rating DESC, username ASC
		LIMIT $1`
	entries := make([]models.LeaderboardPlayer, 0, limit)
	if err := pgxscan.Select(ctx, q, &entries, query, limit); err != nil {
		r.logger.Error("Failed to list leaderboard", zap.Error(err))
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	return entries, nil
}
