package models

import (
	"time"

	"github.com/google/uuid"
)

// GuardianTokenCompletionThreshold - прогресс, при достижении которого жетон завершается.
const GuardianTokenCompletionThreshold = 1.0

// GuardianToken - общий жетон, который игроки наполняют вкладами.
// После IsCompleted = true жетон терминальный: не выбирается и не меняется.
type GuardianToken struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	CurrentProgress   float64    `db:"current_progress" json:"current_progress"`
	IsCompleted       bool       `db:"is_completed" json:"is_completed"`
	LastContributorID *uuid.UUID `db:"last_contributor_id" json:"last_contributor_id,omitempty"`
	CompletedBy       *uuid.UUID `db:"completed_by" json:"completed_by,omitempty"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// ContributionOutcome - результат применения вклада к жетону внутри транзакции.
type ContributionOutcome struct {
	TokenID       uuid.UUID
	Progress      float64
	Completed     bool // жетон завершен именно этим вкладом
	CompletedAt   *time.Time
	TokenSelected bool // false, если открытых жетонов не было
}
