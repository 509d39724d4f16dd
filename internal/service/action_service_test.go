package service

import (
	"context"
	"testing"

	"guardian-server/internal/interfaces/mocks"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordAction(t *testing.T) {
	tx := &mocks.TxManager{}
	actions := &mocks.ActionRepository{}
	players := &mocks.PlayerRepository{}
	player := uuid.New()

	players.On("TouchLastLogin", mock.Anything, mock.Anything, player, mock.AnythingOfType("time.Time")).Return(nil).Once()
	actions.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(a *models.PlayerAction) bool {
		return a.PlayerID == player && a.Action == models.ActionRecycle && a.Resource == "plastic" && a.Amount == 4
	})).Return(nil).Once()

	svc := NewActionService(nil, tx, actions, players, zap.NewNop())
	action, err := svc.RecordAction(context.Background(), player, models.ActionRecycle, " plastic ", 4)
	require.NoError(t, err)
	assert.Equal(t, "plastic", action.Resource)
	assert.Equal(t, 1, tx.Calls)
	actions.AssertExpectations(t)
	players.AssertExpectations(t)
}

func TestRecordAction_ValidationHappensBeforeTransaction(t *testing.T) {
	tx := &mocks.TxManager{}
	svc := NewActionService(nil, tx, &mocks.ActionRepository{}, &mocks.PlayerRepository{}, zap.NewNop())
	player := uuid.New()

	_, err := svc.RecordAction(context.Background(), player, models.ActionCollect, "glass", 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.RecordAction(context.Background(), player, models.ActionCollect, "glass", -3)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.RecordAction(context.Background(), player, models.ActionCollect, "  ", 1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.RecordAction(context.Background(), player, models.ActionKind("burn"), "glass", 1)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.RecordAction(context.Background(), uuid.Nil, models.ActionCollect, "glass", 1)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Zero(t, tx.Calls)
}

func TestListActions_ClampsLimit(t *testing.T) {
	actions := &mocks.ActionRepository{}
	player := uuid.New()
	actions.On("ListByPlayer", mock.Anything, mock.Anything, player, "", defaultActionsPageSize).Return([]models.PlayerAction{}, "", nil).Once()
	actions.On("ListByPlayer", mock.Anything, mock.Anything, player, "c", maxActionsPageSize).Return([]models.PlayerAction{}, "", nil).Once()

	svc := NewActionService(nil, &mocks.TxManager{}, actions, &mocks.PlayerRepository{}, zap.NewNop())
	_, _, err := svc.ListActions(context.Background(), player, "", 0)
	require.NoError(t, err)
	_, _, err = svc.ListActions(context.Background(), player, "c", 1000)
	require.NoError(t, err)
	actions.AssertExpectations(t)
}
