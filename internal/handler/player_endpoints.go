package handler

import (
	"net/http"

	"guardian-server/internal/models"
	"guardian-server/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *GuardianHandler) collect(c *gin.Context) {
	h.recordAction(c, models.ActionCollect)
}

func (h *GuardianHandler) recycle(c *gin.Context) {
	h.recordAction(c, models.ActionRecycle)
}

func (h *GuardianHandler) recordAction(c *gin.Context, kind models.ActionKind) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body", err)
		return
	}
	// Сумма проверяется до идентификации игрока
	if req.Amount <= 0 {
		abortBadRequest(c, "amount must be positive", nil)
		return
	}

	ctx := c.Request.Context()
	playerID, err := service.ResolveSessionOrExplicit(ctx, req.PlayerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	action, err := h.actionService.RecordAction(ctx, playerID, kind, req.Resource, req.Amount)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, actionResponse{
		PlayerID: action.PlayerID,
		Action:   string(action.Action),
		Resource: action.Resource,
		Amount:   action.Amount,
		Status:   "recorded",
	})
}

func (h *GuardianHandler) getPlayerState(c *gin.Context) {
	var q playerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, "Invalid query", err)
		return
	}
	explicit, err := parseOptionalPlayerID(q.PlayerID)
	if err != nil {
		abortBadRequest(c, "Invalid player_id", nil)
		return
	}
	ctx := c.Request.Context()
	playerID, err := service.ResolveSessionOrExplicit(ctx, explicit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	state, err := h.actionService.GetPlayerState(ctx, playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *GuardianHandler) listPlayerActions(c *gin.Context) {
	var q actionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortBadRequest(c, "Invalid query", err)
		return
	}
	explicit, err := parseOptionalPlayerID(q.PlayerID)
	if err != nil {
		abortBadRequest(c, "Invalid player_id", nil)
		return
	}
	ctx := c.Request.Context()
	playerID, err := service.ResolveSessionOrExplicit(ctx, explicit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	actions, next, err := h.actionService.ListActions(ctx, playerID, q.Cursor, q.Limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if actions == nil {
		actions = []models.PlayerAction{}
	}
	c.JSON(http.StatusOK, actionsResponse{Data: actions, NextCursor: next})
}
