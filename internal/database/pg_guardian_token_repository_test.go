package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// lockRaceDB отдает пустой результат блокирующего выбора emptyLocks раз подряд,
// как Postgres после ожидания блокировки на строке, которую конкурент успел завершить.
type lockRaceDB struct {
	emptyLocks  int
	open        bool
	token       models.GuardianToken
	onEmptyLock func(call int)

	lockCalls   int
	existsCalls int
}

func (d *lockRaceDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (d *lockRaceDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (d *lockRaceDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch sql {
	case lockOldestOpenQuery:
		d.lockCalls++
		if d.emptyLocks < 0 || d.lockCalls <= d.emptyLocks {
			if d.onEmptyLock != nil {
				d.onEmptyLock(d.lockCalls)
			}
			return rowFunc(func(...any) error { return pgx.ErrNoRows })
		}
		return rowFunc(func(dest ...any) error {
			*dest[0].(*uuid.UUID) = d.token.ID
			*dest[1].(*float64) = d.token.CurrentProgress
			*dest[2].(*bool) = d.token.IsCompleted
			*dest[3].(**uuid.UUID) = d.token.LastContributorID
			*dest[4].(**uuid.UUID) = d.token.CompletedBy
			*dest[5].(**time.Time) = d.token.CompletedAt
			*dest[6].(*time.Time) = d.token.CreatedAt
			return nil
		})
	case existsOpenQuery:
		d.existsCalls++
		return rowFunc(func(dest ...any) error {
			*dest[0].(*bool) = d.open
			return nil
		})
	}
	return rowFunc(func(...any) error { return errors.New("unexpected query") })
}

func TestLockOldestOpen_RetriesWhileOpenTokensRemain(t *testing.T) {
	repo := NewPgGuardianTokenRepository(zap.NewNop())
	next := models.GuardianToken{ID: uuid.New(), CurrentProgress: 0.4, CreatedAt: time.Now().Add(-time.Hour)}
	db := &lockRaceDB{emptyLocks: 7, open: true, token: next}

	token, err := repo.LockOldestOpen(context.Background(), db)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, next.ID, token.ID)
	assert.InDelta(t, 0.4, token.CurrentProgress, 1e-12)
	assert.Equal(t, 8, db.lockCalls)
	assert.Equal(t, 7, db.existsCalls)
}

func TestLockOldestOpen_NoOpenTokens(t *testing.T) {
	repo := NewPgGuardianTokenRepository(zap.NewNop())
	db := &lockRaceDB{emptyLocks: -1, open: false}

	token, err := repo.LockOldestOpen(context.Background(), db)
	assert.Nil(t, token)
	assert.ErrorIs(t, err, models.ErrNoOpenGuardianToken)
	assert.Equal(t, 1, db.lockCalls)
}

// Пока открытые жетоны есть, пустой выбор никогда не превращается в "нет жетонов".
func TestLockOldestOpen_StopsOnContextNotAsNoOp(t *testing.T) {
	repo := NewPgGuardianTokenRepository(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db := &lockRaceDB{emptyLocks: -1, open: true, onEmptyLock: func(call int) {
		if call == 20 {
			cancel()
		}
	}}

	token, err := repo.LockOldestOpen(ctx, db)
	assert.Nil(t, token)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, models.ErrNoOpenGuardianToken)
	assert.Equal(t, 20, db.lockCalls)
}
