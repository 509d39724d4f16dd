package handler

import (
	"net/http"

	"guardian-server/internal/models"
	"guardian-server/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Попытка ремедиации
// @Description Засчитывает попытку и добавляет вклад в самый старый открытый жетон.
// @Tags remediation
// @Accept json
// @Produce json
// @Param request body remediationRequest true "Попытка"
// @Success 200 {object} remediationResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse "Нет игрока ни в сессии, ни в запросе"
// @Failure 404 {object} models.ErrorResponse "Неизвестный предмет или игрок"
// @Router /api/remediation [post]
func (h *GuardianHandler) submitRemediation(c *gin.Context) {
	var req remediationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	playerID, err := service.ResolveSessionOrExplicit(ctx, req.PlayerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := h.remediationService.ProcessRemediation(ctx, models.RemediationInput{
		PlayerID:  playerID,
		ItemID:    *req.ItemID,
		Success:   *req.Success,
		ElapsedMs: *req.TimingMs,
	})
	if err != nil {
		h.logger.Warn("Remediation failed", zap.Error(err), zap.String("playerID", playerID.String()), zap.Int64("itemID", *req.ItemID))
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, remediationResponse{
		PlayerID:       result.PlayerID,
		ItemID:         result.ItemID,
		TokenIncrement: result.TokenIncrement,
		TokenID:        result.TokenID,
		TokenProgress:  result.TokenProgress,
		TokenCompleted: result.TokenCompleted,
	})
}

// @Summary Таблица лидеров
// @Tags leaderboard
// @Produce json
// @Success 200 {object} leaderboardResponse
// @Router /api/leaderboard [get]
func (h *GuardianHandler) getLeaderboard(c *gin.Context) {
	players, err := h.leaderboardService.GetLeaderboard(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if players == nil {
		players = []models.LeaderboardPlayer{}
	}
	c.JSON(http.StatusOK, leaderboardResponse{Players: players})
}
