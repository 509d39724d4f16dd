package mocks

import (
	"context"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// GuardianTokenRepository mock
type GuardianTokenRepository struct {
	mock.Mock
}

var _ interfaces.GuardianTokenRepository = (*GuardianTokenRepository)(nil)

func (m *GuardianTokenRepository) LockOldestOpen(ctx context.Context, tx interfaces.DBTX) (*models.GuardianToken, error) {
	args := m.Called(ctx, tx)
	token, _ := args.Get(0).(*models.GuardianToken)
	return token, args.Error(1)
}

func (m *GuardianTokenRepository) ApplyContribution(ctx context.Context, tx interfaces.DBTX, token *models.GuardianToken, increment float64, playerID uuid.UUID, at time.Time) (*models.ContributionOutcome, error) {
	args := m.Called(ctx, tx, token, increment, playerID, at)
	outcome, _ := args.Get(0).(*models.ContributionOutcome)
	return outcome, args.Error(1)
}

func (m *GuardianTokenRepository) GetByID(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (*models.GuardianToken, error) {
	args := m.Called(ctx, q, id)
	token, _ := args.Get(0).(*models.GuardianToken)
	return token, args.Error(1)
}

func (m *GuardianTokenRepository) ListOpen(ctx context.Context, q interfaces.DBTX, limit int) ([]models.GuardianToken, error) {
	args := m.Called(ctx, q, limit)
	tokens, _ := args.Get(0).([]models.GuardianToken)
	return tokens, args.Error(1)
}

func (m *GuardianTokenRepository) TopUpOpen(ctx context.Context, tx interfaces.DBTX, minOpen int) (int, error) {
	args := m.Called(ctx, tx, minOpen)
	return args.Int(0), args.Error(1)
}

// TrashItemRepository mock
type TrashItemRepository struct {
	mock.Mock
}

var _ interfaces.TrashItemRepository = (*TrashItemRepository)(nil)

func (m *TrashItemRepository) Exists(ctx context.Context, q interfaces.DBTX, itemID int64) (bool, error) {
	args := m.Called(ctx, q, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *TrashItemRepository) GetByID(ctx context.Context, q interfaces.DBTX, itemID int64) (*models.TrashItem, error) {
	args := m.Called(ctx, q, itemID)
	item, _ := args.Get(0).(*models.TrashItem)
	return item, args.Error(1)
}

func (m *TrashItemRepository) List(ctx context.Context, q interfaces.DBTX) ([]models.TrashItem, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]models.TrashItem)
	return items, args.Error(1)
}

// PlayerRepository mock
type PlayerRepository struct {
	mock.Mock
}

var _ interfaces.PlayerRepository = (*PlayerRepository)(nil)

func (m *PlayerRepository) Create(ctx context.Context, q interfaces.DBTX, player *models.Player) error {
	args := m.Called(ctx, q, player)
	return args.Error(0)
}

func (m *PlayerRepository) GetByID(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (*models.Player, error) {
	args := m.Called(ctx, q, id)
	player, _ := args.Get(0).(*models.Player)
	return player, args.Error(1)
}

func (m *PlayerRepository) GetByUsername(ctx context.Context, q interfaces.DBTX, username string) (*models.Player, error) {
	args := m.Called(ctx, q, username)
	player, _ := args.Get(0).(*models.Player)
	return player, args.Error(1)
}

func (m *PlayerRepository) Exists(ctx context.Context, q interfaces.DBTX, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, id)
	return args.Bool(0), args.Error(1)
}

func (m *PlayerRepository) ApplyTokenCompletion(ctx context.Context, tx interfaces.DBTX, playerID uuid.UUID, ratingDelta float64, at time.Time) error {
	args := m.Called(ctx, tx, playerID, ratingDelta, at)
	return args.Error(0)
}

func (m *PlayerRepository) TouchLastLogin(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, q, playerID, at)
	return args.Error(0)
}

func (m *PlayerRepository) SetWalletAddress(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, address string) error {
	args := m.Called(ctx, q, playerID, address)
	return args.Error(0)
}

func (m *PlayerRepository) ListLeaderboard(ctx context.Context, q interfaces.DBTX, limit int) ([]models.LeaderboardPlayer, error) {
	args := m.Called(ctx, q, limit)
	players, _ := args.Get(0).([]models.LeaderboardPlayer)
	return players, args.Error(1)
}

// ActionRepository mock
type ActionRepository struct {
	mock.Mock
}

var _ interfaces.ActionRepository = (*ActionRepository)(nil)

func (m *ActionRepository) Insert(ctx context.Context, q interfaces.DBTX, action *models.PlayerAction) error {
	args := m.Called(ctx, q, action)
	return args.Error(0)
}

func (m *ActionRepository) GetPlayerState(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID) (*models.PlayerState, error) {
	args := m.Called(ctx, q, playerID)
	state, _ := args.Get(0).(*models.PlayerState)
	return state, args.Error(1)
}

func (m *ActionRepository) ListByPlayer(ctx context.Context, q interfaces.DBTX, playerID uuid.UUID, cursor string, limit int) ([]models.PlayerAction, string, error) {
	args := m.Called(ctx, q, playerID, cursor, limit)
	actions, _ := args.Get(0).([]models.PlayerAction)
	return actions, args.String(1), args.Error(2)
}
