package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"guardian-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSessionRouter(verifier TokenVerifier, sessions SessionLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(verifier, sessions, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		id, ok := models.GetPlayerIDFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String()+"|"+c.GetString(AccessUUIDKey))
	})
	r.GET("/private", RequireSession(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func staticVerifier(playerID uuid.UUID, jti string) TokenVerifier {
	return func(_ context.Context, token string) (*models.Claims, error) {
		if token != "good" {
			return nil, models.ErrTokenInvalid
		}
		return &models.Claims{PlayerID: playerID, RegisteredClaims: jwt.RegisteredClaims{ID: jti}}, nil
	}
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSession_ValidTokenSetsPlayer(t *testing.T) {
	player := uuid.New()
	r := newSessionRouter(staticVerifier(player, "jti-1"), func(context.Context, string) (uuid.UUID, error) {
		return player, nil
	})

	w := get(r, "/whoami", "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, player.String()+"|jti-1", w.Body.String())
}

func TestSession_InvalidOrMissingTokenIsAnonymous(t *testing.T) {
	r := newSessionRouter(staticVerifier(uuid.New(), "jti"), nil)

	for _, auth := range []string{"", "Bearer bad", "Basic good", "Bearer "} {
		w := get(r, "/whoami", auth)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String(), "auth header %q", auth)
	}
}

func TestSession_RevokedSessionIsAnonymous(t *testing.T) {
	r := newSessionRouter(staticVerifier(uuid.New(), "jti-2"), func(context.Context, string) (uuid.UUID, error) {
		return uuid.Nil, models.ErrTokenNotFound
	})
	assert.Equal(t, "anonymous", get(r, "/whoami", "Bearer good").Body.String())

	r = newSessionRouter(staticVerifier(uuid.New(), "jti-3"), func(context.Context, string) (uuid.UUID, error) {
		return uuid.Nil, errors.New("redis down")
	})
	assert.Equal(t, "anonymous", get(r, "/whoami", "Bearer good").Body.String())
}

func TestSession_PlayerMismatchIsAnonymous(t *testing.T) {
	r := newSessionRouter(staticVerifier(uuid.New(), "jti-4"), func(context.Context, string) (uuid.UUID, error) {
		return uuid.New(), nil
	})

	w := get(r, "/whoami", "Bearer good")
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", "Bearer good").Code)
}

func TestRequireSession(t *testing.T) {
	player := uuid.New()
	r := newSessionRouter(staticVerifier(player, "jti"), nil)

	w := get(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeUnauthorized)

	w = get(r, "/private", "bearer good")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
