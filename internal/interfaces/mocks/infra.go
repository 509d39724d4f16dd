package mocks

import (
	"context"
	"sync"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TxManager выполняет fn сразу, передавая nil вместо транзакции.
// Ошибка fn возвращается как есть; Calls считает вызовы.
type TxManager struct {
	mu    sync.Mutex
	Calls int
}

var _ interfaces.TxManager = (*TxManager)(nil)

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(ctx, nil)
}

// LeaderboardCache mock
type LeaderboardCache struct {
	mock.Mock
}

var _ interfaces.LeaderboardCache = (*LeaderboardCache)(nil)

func (m *LeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardPlayer, bool, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]models.LeaderboardPlayer)
	return entries, args.Bool(1), args.Error(2)
}

func (m *LeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardPlayer, ttl time.Duration) error {
	args := m.Called(ctx, entries, ttl)
	return args.Error(0)
}

func (m *LeaderboardCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// SessionRepository mock
type SessionRepository struct {
	mock.Mock
}

var _ interfaces.SessionRepository = (*SessionRepository)(nil)

func (m *SessionRepository) SetSession(ctx context.Context, playerID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, playerID, td)
	return args.Error(0)
}

func (m *SessionRepository) GetPlayerIDBySession(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *SessionRepository) DeleteSession(ctx context.Context, accessUUID string) error {
	args := m.Called(ctx, accessUUID)
	return args.Error(0)
}

// GuardianEventPublisher mock
type GuardianEventPublisher struct {
	mock.Mock
}

var _ interfaces.GuardianEventPublisher = (*GuardianEventPublisher)(nil)

func (m *GuardianEventPublisher) PublishTokenCompleted(ctx context.Context, event models.GuardianTokenCompletedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Broadcaster запоминает отправленные сообщения.
type Broadcaster struct {
	mu       sync.Mutex
	Messages [][]byte
}

var _ interfaces.Broadcaster = (*Broadcaster)(nil)

func (b *Broadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Messages = append(b.Messages, message)
}

func (b *Broadcaster) Sent() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]byte, len(b.Messages))
	copy(out, b.Messages)
	return out
}
