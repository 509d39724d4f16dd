package service

import (
	"context"

	"guardian-server/internal/models"

	"github.com/google/uuid"
)

// IdentitySource - один из способов узнать, от имени какого игрока пришел запрос.
type IdentitySource interface {
	PlayerID(ctx context.Context) (uuid.UUID, bool)
}

// SessionIdentity берет игрока из сессии, которую положил в контекст middleware.
type SessionIdentity struct{}

func (SessionIdentity) PlayerID(ctx context.Context) (uuid.UUID, bool) {
	return models.GetPlayerIDFromContext(ctx)
}

// ExplicitIdentity - игрок, явно указанный в теле или query запроса.
type ExplicitIdentity struct {
	ID *uuid.UUID
}

func (e ExplicitIdentity) PlayerID(context.Context) (uuid.UUID, bool) {
	if e.ID == nil || *e.ID == uuid.Nil {
		return uuid.Nil, false
	}
	return *e.ID, true
}

// ResolvePlayerID опрашивает источники по порядку и возвращает первый найденный ID.
// Без источников с ID возвращает models.ErrUnauthorized.
func ResolvePlayerID(ctx context.Context, sources ...IdentitySource) (uuid.UUID, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if id, ok := src.PlayerID(ctx); ok {
			return id, nil
		}
	}
	return uuid.Nil, models.ErrUnauthorized
}

// ResolveSessionOrExplicit - стандартный порядок: сессия важнее поля запроса.
func ResolveSessionOrExplicit(ctx context.Context, explicit *uuid.UUID) (uuid.UUID, error) {
	return ResolvePlayerID(ctx, SessionIdentity{}, ExplicitIdentity{ID: explicit})
}
