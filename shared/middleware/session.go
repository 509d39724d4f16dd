package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"guardian-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessUUIDKey - ключ gin.Context с JTI текущей сессии.
const AccessUUIDKey = "access_uuid"

// TokenVerifier определяет функцию, которая проверяет строку токена и возвращает claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// SessionLookup подтверждает, что сессия с данным JTI не отозвана, и возвращает ее игрока.
// Для отозванной или истекшей сессии возвращает models.ErrTokenNotFound.
type SessionLookup func(ctx context.Context, accessUUID string) (uuid.UUID, error)

// Session создает middleware, которое кладет игрока из Bearer токена в контекст запроса.
// Отсутствующий, невалидный или отозванный токен, как и сессия чужого игрока,
// дает анонимную сессию: запрос продолжается.
func Session(verifier TokenVerifier, sessions SessionLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		claims, err := verifier(ctx, tokenString)
		if err != nil {
			logger.Debug("Token rejected, continuing as anonymous", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.Next()
			return
		}

		if sessions != nil && claims.ID != "" {
			sessionPlayerID, err := sessions(ctx, claims.ID)
			if err != nil {
				if !errors.Is(err, models.ErrTokenNotFound) {
					logger.Warn("Session lookup failed, continuing as anonymous", zap.Error(err))
				}
				c.Next()
				return
			}
			if sessionPlayerID != claims.PlayerID {
				logger.Warn("Session belongs to another player, continuing as anonymous",
					zap.String("tokenPlayerID", claims.PlayerID.String()),
					zap.String("sessionPlayerID", sessionPlayerID.String()))
				c.Next()
				return
			}
		}

		c.Request = c.Request.WithContext(models.WithPlayerID(ctx, claims.PlayerID))
		c.Set(AccessUUIDKey, claims.ID)
		c.Next()
	}
}

// RequireSession отклоняет запросы без сессии с 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := models.GetPlayerIDFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeUnauthorized,
				Message: "Authentication required",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
