package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionKind - тип действия в журнале игрока.
type ActionKind string

const (
	ActionCollect ActionKind = "collect"
	ActionRecycle ActionKind = "recycle"
)

// PlayerAction - запись журнала действий.
type PlayerAction struct {
	ID        int64      `db:"id" json:"id"`
	PlayerID  uuid.UUID  `db:"player_id" json:"player_id"`
	Action    ActionKind `db:"action" json:"action"`
	Resource  string     `db:"resource" json:"resource"`
	Amount    int        `db:"amount" json:"amount"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
