package handler

import (
	"guardian-server/internal/service"
	"guardian-server/shared/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuardianHandler обслуживает HTTP API сервера.
type GuardianHandler struct {
	remediationService service.RemediationService
	leaderboardService service.LeaderboardService
	actionService      service.ActionService
	authService        service.AuthService
	catalogService     service.CatalogService
	logger             *zap.Logger
}

func NewGuardianHandler(
	remediationService service.RemediationService,
	leaderboardService service.LeaderboardService,
	actionService service.ActionService,
	authService service.AuthService,
	catalogService service.CatalogService,
	logger *zap.Logger,
) *GuardianHandler {
	return &GuardianHandler{
		remediationService: remediationService,
		leaderboardService: leaderboardService,
		actionService:      actionService,
		authService:        authService,
		catalogService:     catalogService,
		logger:             logger.Named("GuardianHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. authLimiter ограничивает /auth/register и /auth/login, может быть nil.
// Middleware сессии должен стоять на роутере раньше.
func (h *GuardianHandler) RegisterRoutes(router gin.IRouter, authLimiter gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	if authLimiter != nil {
		authGroup.POST("/register", authLimiter, h.register)
		authGroup.POST("/login", authLimiter, h.login)
	} else {
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}
	authGroup.POST("/logout", middleware.RequireSession(), h.logout)

	api := router.Group("/api")
	{
		api.POST("/remediation", h.submitRemediation)
		api.GET("/leaderboard", h.getLeaderboard)

		api.POST("/action/collect", h.collect)
		api.POST("/action/recycle", h.recycle)

		api.GET("/player/state", h.getPlayerState)
		api.GET("/player/actions", h.listPlayerActions)
		api.GET("/player/me", middleware.RequireSession(), h.getMe)
		api.PUT("/player/wallet", middleware.RequireSession(), h.linkWallet)

		api.GET("/catalog/items", h.listItems)
		api.GET("/catalog/items/:id", h.getItem)
		api.GET("/guardian-tokens/open", h.listOpenTokens)
	}
}
