package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardian-server/internal/interfaces/mocks"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleLeaderboard() []models.LeaderboardPlayer {
	return []models.LeaderboardPlayer{
		{ID: uuid.New(), Username: "alice", GuardianTokensCompleted: 3, SkillRating: 1.3},
		{ID: uuid.New(), Username: "bob", GuardianTokensCompleted: 1, SkillRating: 1.1},
	}
}

func TestGetLeaderboard_CacheHitSkipsDatabase(t *testing.T) {
	players := &mocks.PlayerRepository{}
	cache := &mocks.LeaderboardCache{}
	entries := sampleLeaderboard()
	cache.On("Get", mock.Anything).Return(entries, true, nil).Once()

	svc := NewLeaderboardService(nil, players, cache, 30*time.Second, zap.NewNop())
	got, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	players.AssertNotCalled(t, "ListLeaderboard", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestGetLeaderboard_CacheMissPopulatesCache(t *testing.T) {
	players := &mocks.PlayerRepository{}
	cache := &mocks.LeaderboardCache{}
	entries := sampleLeaderboard()
	cache.On("Get", mock.Anything).Return(nil, false, nil).Once()
	players.On("ListLeaderboard", mock.Anything, mock.Anything, LeaderboardLimit).Return(entries, nil).Once()
	cache.On("Set", mock.Anything, entries, 30*time.Second).Return(nil).Once()

	svc := NewLeaderboardService(nil, players, cache, 30*time.Second, zap.NewNop())
	got, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	players.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetLeaderboard_CacheErrorFallsBackToDatabase(t *testing.T) {
	players := &mocks.PlayerRepository{}
	cache := &mocks.LeaderboardCache{}
	entries := sampleLeaderboard()
	cache.On("Get", mock.Anything).Return(nil, false, errors.New("redis down")).Once()
	players.On("ListLeaderboard", mock.Anything, mock.Anything, LeaderboardLimit).Return(entries, nil).Once()
	cache.On("Set", mock.Anything, entries, 30*time.Second).Return(errors.New("redis down")).Once()

	svc := NewLeaderboardService(nil, players, cache, 30*time.Second, zap.NewNop())
	got, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestGetLeaderboard_WithoutCache(t *testing.T) {
	players := &mocks.PlayerRepository{}
	players.On("ListLeaderboard", mock.Anything, mock.Anything, LeaderboardLimit).Return([]models.LeaderboardPlayer{}, nil).Once()

	svc := NewLeaderboardService(nil, players, nil, 0, zap.NewNop())
	got, err := svc.GetLeaderboard(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, svc.InvalidateCache(context.Background()))
}

func TestGetLeaderboard_DatabaseErrorPropagates(t *testing.T) {
	players := &mocks.PlayerRepository{}
	dbErr := errors.New("query failed")
	players.On("ListLeaderboard", mock.Anything, mock.Anything, LeaderboardLimit).Return(nil, dbErr).Once()

	svc := NewLeaderboardService(nil, players, nil, 0, zap.NewNop())
	_, err := svc.GetLeaderboard(context.Background())
	assert.ErrorIs(t, err, dbErr)
}
