package service

import (
	"context"
	"testing"

	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSessionOrExplicit(t *testing.T) {
	sessionID := uuid.New()
	explicitID := uuid.New()

	t.Run("session wins over explicit", func(t *testing.T) {
		ctx := models.WithPlayerID(context.Background(), sessionID)
		got, err := ResolveSessionOrExplicit(ctx, &explicitID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, got)
	})

	t.Run("explicit when anonymous", func(t *testing.T) {
		got, err := ResolveSessionOrExplicit(context.Background(), &explicitID)
		require.NoError(t, err)
		assert.Equal(t, explicitID, got)
	})

	t.Run("nil uuid in payload is not an identity", func(t *testing.T) {
		nilID := uuid.Nil
		_, err := ResolveSessionOrExplicit(context.Background(), &nilID)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("neither", func(t *testing.T) {
		_, err := ResolveSessionOrExplicit(context.Background(), nil)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestResolvePlayerIDSkipsNilSources(t *testing.T) {
	id := uuid.New()
	got, err := ResolvePlayerID(context.Background(), nil, ExplicitIdentity{ID: &id})
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
