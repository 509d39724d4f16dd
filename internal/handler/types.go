package handler

import (
	"guardian-server/internal/models"

	"github.com/google/uuid"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,password"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// remediationRequest - указатели, чтобы отличать отсутствующее поле от нулевого значения.
type remediationRequest struct {
	PlayerID *uuid.UUID `json:"player_id"`
	ItemID   *int64     `json:"item_id" binding:"required"`
	Success  *bool      `json:"success" binding:"required"`
	TimingMs *int64     `json:"timing_ms" binding:"required"`
}

type remediationResponse struct {
	PlayerID       uuid.UUID  `json:"player_id"`
	ItemID         int64      `json:"item_id"`
	TokenIncrement float64    `json:"token_increment"`
	TokenID        *uuid.UUID `json:"token_id,omitempty"`
	TokenProgress  *float64   `json:"token_progress,omitempty"`
	TokenCompleted bool       `json:"token_completed"`
}

type leaderboardResponse struct {
	Players []models.LeaderboardPlayer `json:"players"`
}

type actionRequest struct {
	PlayerID *uuid.UUID `json:"player_id"`
	Resource string     `json:"resource" binding:"required"`
	Amount   int        `json:"amount"`
}

type actionResponse struct {
	PlayerID uuid.UUID `json:"player_id"`
	Action   string    `json:"action"`
	Resource string    `json:"resource"`
	Amount   int       `json:"amount"`
	Status   string    `json:"status"`
}

type playerQuery struct {
	PlayerID string `form:"player_id"`
}

type actionsQuery struct {
	PlayerID string `form:"player_id"`
	Cursor   string `form:"cursor"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type actionsResponse struct {
	Data       []models.PlayerAction `json:"data"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type linkWalletRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,max=128"`
}

type meResponse struct {
	ID                      uuid.UUID `json:"id"`
	Username                string    `json:"username"`
	WalletAddress           *string   `json:"wallet_address,omitempty"`
	GuardianTokensCompleted int       `json:"guardian_tokens_completed"`
	SkillRating             float64   `json:"skill_rating"`
}

func newMeResponse(p *models.Player) meResponse {
	return meResponse{
		ID:                      p.ID,
		Username:                p.Username,
		WalletAddress:           p.WalletAddress,
		GuardianTokensCompleted: p.GuardianTokensCompleted,
		SkillRating:             p.SkillRating,
	}
}

// parseOptionalPlayerID разбирает player_id из query. Пустая строка - нет значения.
func parseOptionalPlayerID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
