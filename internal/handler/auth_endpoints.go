package handler

import (
	"net/http"

	"guardian-server/internal/models"
	"guardian-server/shared/middleware"

	"github.com/gin-gonic/gin"
)

// @Summary Регистрация нового игрока
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Данные для регистрации"
// @Success 201 {object} map[string]interface{} "Успешная регистрация"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 409 {object} models.ErrorResponse "Игрок уже существует"
// @Router /auth/register [post]
func (h *GuardianHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request data", err)
		return
	}

	player, err := h.authService.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"id":       player.ID.String(),
		"username": player.Username,
	})
}

// @Summary Вход
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Данные для входа"
// @Success 200 {object} models.TokenDetails
// @Failure 401 {object} models.ErrorResponse "Неверные учетные данные"
// @Router /auth/login [post]
func (h *GuardianHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body", err)
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}
	loginsTotal.WithLabelValues("success").Inc()

	c.JSON(http.StatusOK, tokens)
}

func (h *GuardianHandler) logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString(middleware.AccessUUIDKey)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *GuardianHandler) getMe(c *gin.Context) {
	playerID, ok := models.GetPlayerIDFromContext(c.Request.Context())
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
	player, err := h.authService.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMeResponse(player))
}

func (h *GuardianHandler) linkWallet(c *gin.Context) {
	var req linkWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body", err)
		return
	}
	playerID, ok := models.GetPlayerIDFromContext(c.Request.Context())
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return
	}
	player, err := h.authService.LinkWallet(c.Request.Context(), playerID, req.WalletAddress)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMeResponse(player))
}
