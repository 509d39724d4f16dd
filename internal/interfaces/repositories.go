package interfaces

import (
	"context"
	"time"

	"guardian-server/internal/models"

	"github.com/google/uuid"
)

// GuardianTokenRepository - выбор и наполнение общих жетонов.
type GuardianTokenRepository interface {
	// LockOldestOpen блокирует самый старый незавершенный жетон (FOR UPDATE).
	// Возвращает models.ErrNoOpenGuardianToken, только если открытых жетонов нет.
	LockOldestOpen(ctx context.Context, tx DBTX) (*models.GuardianToken, error)

	// ApplyContribution добавляет increment к заблокированному жетону.
	// Завершает жетон только положительный вклад.
	// Вызывать только с жетоном, полученным из LockOldestOpen в той же транзакции.
	ApplyContribution(ctx context.Context, tx DBTX, token *models.GuardianToken, increment float64, playerID uuid.UUID, at time.Time) (*models.ContributionOutcome, error)

	// GetByID читает жетон без блокировки.
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.GuardianToken, error)

	// ListOpen возвращает открытые жетоны в порядке выбора.
	ListOpen(ctx context.Context, q DBTX, limit int) ([]models.GuardianToken, error)

	// TopUpOpen создает недостающие жетоны, чтобы открытых было не меньше minOpen.
	// Возвращает число созданных. Вызывать внутри транзакции.
	TopUpOpen(ctx context.Context, tx DBTX, minOpen int) (int, error)
}

// TrashItemRepository - каталог предметов.
type TrashItemRepository interface {
	Exists(ctx context.Context, q DBTX, itemID int64) (bool, error)
	GetByID(ctx context.Context, q DBTX, itemID int64) (*models.TrashItem, error)
	List(ctx context.Context, q DBTX) ([]models.TrashItem, error)
}

// PlayerRepository - учетные записи и статистика игроков.
type PlayerRepository interface {
	Create(ctx context.Context, q DBTX, player *models.Player) error
	GetByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Player, error)
	GetByUsername(ctx context.Context, q DBTX, username string) (*models.Player, error)
	Exists(ctx context.Context, q DBTX, id uuid.UUID) (bool, error)

	// ApplyTokenCompletion начисляет игроку завершенный жетон.
	// Возвращает models.ErrPlayerNotFound, если ни одна строка не обновлена.
	ApplyTokenCompletion(ctx context.Context, tx DBTX, playerID uuid.UUID, ratingDelta float64, at time.Time) error

	TouchLastLogin(ctx context.Context, q DBTX, playerID uuid.UUID, at time.Time) error
	SetWalletAddress(ctx context.Context, q DBTX, playerID uuid.UUID, address string) error

	// ListLeaderboard возвращает не более limit игроков, упорядоченных для лидерборда.
	ListLeaderboard(ctx context.Context, q DBTX, limit int) ([]models.LeaderboardPlayer, error)
}

// ActionRepository - журнал действий игрока.
type ActionRepository interface {
	Insert(ctx context.Context, q DBTX, action *models.PlayerAction) error
	GetPlayerState(ctx context.Context, q DBTX, playerID uuid.UUID) (*models.PlayerState, error)
	// ListByPlayer возвращает страницу журнала, новые записи первыми.
	ListByPlayer(ctx context.Context, q DBTX, playerID uuid.UUID, cursor string, limit int) ([]models.PlayerAction, string, error)
}
