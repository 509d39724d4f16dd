package models

import "errors"

// Стандартные ошибки приложения
var (
	// Common Resource/DB Errors
	ErrNotFound = errors.New("resource not found")

	// Каталог и жетоны
	ErrTrashItemNotFound   = errors.New("trash item not found")
	ErrNoOpenGuardianToken = errors.New("no open guardian token")

	// Player & Authentication Errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrUserAlreadyExists   = errors.New("player with this username already exists")
	ErrWalletAlreadyLinked = errors.New("wallet address is already linked to another player")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUnauthorized        = errors.New("unauthorized")

	// Token Errors
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotFound  = errors.New("token not found or revoked")

	// General Request/Server Errors
	ErrInternalServer = errors.New("internal server error")
	ErrBadRequest     = errors.New("bad request")
	ErrInvalidInput   = errors.New("invalid input data")
)
