package models

import (
	"time"

	"github.com/google/uuid"
)

// Player - учетная запись игрока и его статистика для рейтинга.
type Player struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	Username                string    `db:"username" json:"username"`
	PasswordHash            string    `db:"password_hash" json:"-"` // Не отдаем хеш пароля
	WalletAddress           *string   `db:"wallet_address" json:"wallet_address,omitempty"`
	GuardianTokensCompleted int       `db:"guardian_tokens_completed" json:"guardian_tokens_completed"`
	SkillRating             float64   `db:"skill_rating" json:"skill_rating"`
	LastLogin               time.Time `db:"last_login" json:"last_login"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

// LeaderboardPlayer - проекция игрока для таблицы лидеров.
type LeaderboardPlayer struct {
	ID                      uuid.UUID `db:"id" json:"id"`
	Username                string    `db:"username" json:"username"`
	WalletAddress           *string   `db:"wallet_address" json:"wallet_address,omitempty"`
	GuardianTokensCompleted int       `db:"guardian_tokens_completed" json:"guardian_tokens_completed"`
	SkillRating             float64   `db:"skill_rating" json:"skill_rating"`
	LastLogin               time.Time `db:"last_login" json:"last_login"`
}

// PlayerState - агрегированные итоги действий игрока.
type PlayerState struct {
	PlayerID       uuid.UUID `db:"player_id" json:"player_id"`
	CollectedTotal int64     `db:"collected_total" json:"collected_total"`
	RecycledTotal  int64     `db:"recycled_total" json:"recycled_total"`
}
