package models

import "github.com/google/uuid"

// RemediationInput - входные данные попытки ремедиации.
type RemediationInput struct {
	PlayerID  uuid.UUID
	ItemID    int64
	Success   bool
	ElapsedMs int64
}

// RemediationResult - итог закоммиченной попытки.
type RemediationResult struct {
	PlayerID       uuid.UUID  `json:"player_id"`
	ItemID         int64      `json:"item_id"`
	TokenIncrement float64    `json:"token_increment"`
	TokenID        *uuid.UUID `json:"token_id,omitempty"`
	TokenProgress  *float64   `json:"token_progress,omitempty"`
	TokenCompleted bool       `json:"token_completed"`
}
