package handler

import (
	"net/http"
	"strconv"

	"guardian-server/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *GuardianHandler) listItems(c *gin.Context) {
	items, err := h.catalogService.ListItems(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if items == nil {
		items = []models.TrashItem{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (h *GuardianHandler) getItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortBadRequest(c, "Invalid item id", nil)
		return
	}
	item, err := h.catalogService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *GuardianHandler) listOpenTokens(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	tokens, err := h.catalogService.ListOpenTokens(c.Request.Context(), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if tokens == nil {
		tokens = []models.GuardianToken{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tokens})
}
