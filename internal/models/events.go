package models

import (
	"time"

	"github.com/google/uuid"
)

// GuardianTokenCompletedEvent публикуется после коммита транзакции, завершившей жетон.
type GuardianTokenCompletedEvent struct {
	EventID     string    `json:"event_id"`
	TokenID     uuid.UUID `json:"token_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	Progress    float64   `json:"progress"`
	CompletedAt time.Time `json:"completed_at"`
}

// RealtimeMessage - конверт сообщения для websocket клиентов.
type RealtimeMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RealtimeTypeTokenCompleted - тип сообщения о завершении жетона.
const RealtimeTypeTokenCompleted = "guardian_token_completed"
