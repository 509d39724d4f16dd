package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims представляет стандартные поля JWT и ID игрока.
// ID игрока дублируется в Subject, как это делал исходный сервис сессий.
type Claims struct {
	PlayerID             uuid.UUID `json:"player_id"`
	jwt.RegisteredClaims           // Issuer, Subject, ExpiresAt, IssuedAt, ID (JTI)
}

// TokenDetails содержит выданный access токен и его метаданные.
type TokenDetails struct {
	AccessToken string    `json:"access_token"`
	AccessUUID  string    `json:"-"`
	AtExpires   int64     `json:"expires_at"`
	PlayerID    uuid.UUID `json:"player_id"`
}
