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

type remediationFixture struct {
	tx        *mocks.TxManager
	tokens    *mocks.GuardianTokenRepository
	items     *mocks.TrashItemRepository
	players   *mocks.PlayerRepository
	publisher *mocks.GuardianEventPublisher
	svc       *remediationServiceImpl
	now       time.Time
}

func newRemediationFixture(t *testing.T) *remediationFixture {
	t.Helper()
	f := &remediationFixture{
		tx:        &mocks.TxManager{},
		tokens:    &mocks.GuardianTokenRepository{},
		items:     &mocks.TrashItemRepository{},
		players:   &mocks.PlayerRepository{},
		publisher: &mocks.GuardianEventPublisher{},
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewRemediationService(f.tx, f.tokens, f.items, f.players, f.publisher, zap.NewNop()).(*remediationServiceImpl)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	t.Cleanup(func() {
		f.tokens.AssertExpectations(t)
		f.items.AssertExpectations(t)
		f.players.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})
	return f
}

func (f *remediationFixture) expectPlayer(id uuid.UUID) {
	f.players.On("Exists", mock.Anything, mock.Anything, id).Return(true, nil).Once()
}

func openToken(progress float64) *models.GuardianToken {
	return &models.GuardianToken{ID: uuid.New(), CurrentProgress: progress, CreatedAt: time.Now().Add(-time.Hour)}
}

func TestProcessRemediation_SuccessWithoutCompletion(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(0.5)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, CalculateReward(true, 10), player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 0.515, TokenSelected: true}, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 300})
	require.NoError(t, err)
	assert.Equal(t, player, res.PlayerID)
	assert.Equal(t, int64(1), res.ItemID)
	assert.InDelta(t, 0.015, res.TokenIncrement, 1e-12)
	require.NotNil(t, res.TokenID)
	assert.Equal(t, token.ID, *res.TokenID)
	assert.False(t, res.TokenCompleted)

	f.players.AssertNotCalled(t, "ApplyTokenCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishTokenCompleted", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.tx.Calls)
}

func TestProcessRemediation_CompletionUpdatesStatsAndPublishes(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(0.995)
	completedAt := f.now

	f.items.On("Exists", mock.Anything, mock.Anything, int64(3)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, CalculateReward(true, 800), player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 1.005, Completed: true, CompletedAt: &completedAt, TokenSelected: true}, nil).Once()
	f.players.On("ApplyTokenCompletion", mock.Anything, mock.Anything, player, CompletionRatingDelta, f.now).Return(nil).Once()
	f.publisher.On("PublishTokenCompleted", mock.Anything, mock.MatchedBy(func(e models.GuardianTokenCompletedEvent) bool {
		return e.TokenID == token.ID && e.PlayerID == player && e.EventID != "" && e.CompletedAt.Equal(completedAt)
	})).Return(nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 3, Success: true, ElapsedMs: 800})
	require.NoError(t, err)
	assert.True(t, res.TokenCompleted)
	require.NotNil(t, res.TokenProgress)
	assert.InDelta(t, 1.005, *res.TokenProgress, 1e-12)
}

// Неудачная попытка все равно блокирует жетон и пишет нулевой вклад.
func TestProcessRemediation_FailedAttemptWritesZeroDelta(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(0.2)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(2)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, 0.0, player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 0.2, TokenSelected: true}, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 2, Success: false, ElapsedMs: 100})
	require.NoError(t, err)
	assert.Zero(t, res.TokenIncrement)
	assert.False(t, res.TokenCompleted)
}

// Жетон уже на пороге: нулевой вклад его не завершает, игроку ничего не начисляется,
// событие не публикуется.
func TestProcessRemediation_FailedAttemptNeverCompletesToken(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(1.0)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(2)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, 0.0, player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 1.0, TokenSelected: true}, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 2, Success: false, ElapsedMs: 100})
	require.NoError(t, err)
	assert.False(t, res.TokenCompleted)
	assert.Zero(t, res.TokenIncrement)
	f.players.AssertNotCalled(t, "ApplyTokenCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishTokenCompleted", mock.Anything, mock.Anything)
}

func TestProcessRemediation_CompletionByFailedAttemptRollsBack(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(1.0)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(2)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, 0.0, player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 1.0, Completed: true, TokenSelected: true}, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 2, Success: false, ElapsedMs: 100})
	assert.Nil(t, res)
	assert.Error(t, err)
	f.players.AssertNotCalled(t, "ApplyTokenCompletion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishTokenCompleted", mock.Anything, mock.Anything)
}

func TestProcessRemediation_UnknownItemRollsBackBeforeLocking(t *testing.T) {
	f := newRemediationFixture(t)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(999)).Return(false, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: uuid.New(), ItemID: 999, Success: true, ElapsedMs: 100})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrTrashItemNotFound)
	f.tokens.AssertNotCalled(t, "LockOldestOpen", mock.Anything, mock.Anything)
	f.tokens.AssertNotCalled(t, "ApplyContribution", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessRemediation_UnknownPlayerRejectedBeforeLocking(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.players.On("Exists", mock.Anything, mock.Anything, player).Return(false, nil).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 100})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)
	f.tokens.AssertNotCalled(t, "LockOldestOpen", mock.Anything, mock.Anything)
	f.tokens.AssertNotCalled(t, "ApplyContribution", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Игрок удален между проверкой и начислением: транзакция откатывается.
func TestProcessRemediation_MissingPlayerOnCompletionFails(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(0.999)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, CalculateReward(true, 10), player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 1.014, Completed: true, TokenSelected: true}, nil).Once()
	f.players.On("ApplyTokenCompletion", mock.Anything, mock.Anything, player, CompletionRatingDelta, f.now).Return(models.ErrPlayerNotFound).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 10})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, models.ErrPlayerNotFound)
	f.publisher.AssertNotCalled(t, "PublishTokenCompleted", mock.Anything, mock.Anything)
}

func TestProcessRemediation_NoOpenTokenIsNoOp(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(nil, models.ErrNoOpenGuardianToken).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 10})
	require.NoError(t, err)
	assert.Nil(t, res.TokenID)
	assert.False(t, res.TokenCompleted)
	assert.InDelta(t, 0.015, res.TokenIncrement, 1e-12)
}

func TestProcessRemediation_ValidationFailsWithoutTransaction(t *testing.T) {
	f := newRemediationFixture(t)

	_, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: uuid.New(), ItemID: 1, Success: true, ElapsedMs: -5})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.svc.ProcessRemediation(context.Background(), models.RemediationInput{ItemID: 1, Success: true})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	assert.Zero(t, f.tx.Calls)
}

func TestProcessRemediation_StoreErrorPropagates(t *testing.T) {
	f := newRemediationFixture(t)
	storeErr := errors.New("connection reset")
	player := uuid.New()

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(nil, storeErr).Once()

	_, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 10})
	assert.ErrorIs(t, err, storeErr)
}

func TestProcessRemediation_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newRemediationFixture(t)
	player := uuid.New()
	token := openToken(0.99)

	f.items.On("Exists", mock.Anything, mock.Anything, int64(1)).Return(true, nil).Once()
	f.expectPlayer(player)
	f.tokens.On("LockOldestOpen", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.tokens.On("ApplyContribution", mock.Anything, mock.Anything, token, CalculateReward(true, 10), player, f.now).
		Return(&models.ContributionOutcome{TokenID: token.ID, Progress: 1.005, Completed: true, TokenSelected: true}, nil).Once()
	f.players.On("ApplyTokenCompletion", mock.Anything, mock.Anything, player, CompletionRatingDelta, f.now).Return(nil).Once()
	f.publisher.On("PublishTokenCompleted", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	res, err := f.svc.ProcessRemediation(context.Background(), models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 10})
	require.NoError(t, err)
	assert.True(t, res.TokenCompleted)
}
