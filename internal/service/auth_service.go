package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "guardian-server"

// AuthConfig - параметры выдачи токенов и хеширования паролей.
type AuthConfig struct {
	JWTSecret      string
	PasswordPepper string
	AccessTokenTTL time.Duration
}

// AuthService - регистрация, вход и профиль игрока.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.Player, error)
	Login(ctx context.Context, username, password string) (*models.TokenDetails, error)
	Logout(ctx context.Context, accessUUID string) error
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error)
	LinkWallet(ctx context.Context, playerID uuid.UUID, walletAddress string) (*models.Player, error)
}

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	db          interfaces.DBTX
	playerRepo  interfaces.PlayerRepository
	sessionRepo interfaces.SessionRepository
	cfg         AuthConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewAuthService creates a new instance of authServiceImpl.
func NewAuthService(db interfaces.DBTX, playerRepo interfaces.PlayerRepository, sessionRepo interfaces.SessionRepository, cfg AuthConfig, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		db:          db,
		playerRepo:  playerRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger.Named("AuthService"),
	}
}

// Register creates a new player.
func (s *authServiceImpl) Register(ctx context.Context, username, password string) (*models.Player, error) {
	username = strings.TrimSpace(username)
	logFields := []zap.Field{zap.String("username", username)}
	s.logger.Info("Registering new player", logFields...)

	if username == "" || password == "" {
		s.logger.Warn("Registration attempt with empty username or password", logFields...)
		return nil, fmt.Errorf("%w: username and password are required", models.ErrInvalidInput)
	}

	// Используем перец перед хешированием
	hashedPassword, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Username:     username,
		PasswordHash: hashedPassword,
	}
	// Уникальность имени проверяет ограничение в базе
	if err := s.playerRepo.Create(ctx, s.db, player); err != nil {
		return nil, err
	}

	s.logger.Info("Player registered successfully", zap.String("playerID", player.ID.String()), zap.String("username", player.Username))
	return player, nil
}

// Login authenticates a player and returns token details.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	username = strings.TrimSpace(username)
	s.logger.Info("Login attempt", zap.String("username", username))

	player, err := s.playerRepo.GetByUsername(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, models.ErrPlayerNotFound) {
			s.logger.Warn("Login failed: player not found", zap.String("username", username))
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if !checkPasswordHash(password, player.PasswordHash, s.cfg.PasswordPepper) {
		s.logger.Warn("Login failed: invalid password", zap.String("playerID", player.ID.String()))
		return nil, models.ErrInvalidCredentials
	}

	td, err := s.createAccessToken(player.ID)
	if err != nil {
		return nil, err
	}

	if s.sessionRepo != nil {
		if err := s.sessionRepo.SetSession(ctx, player.ID, td); err != nil {
			s.logger.Error("Failed to save session during login", zap.Error(err), zap.String("playerID", player.ID.String()))
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}

	if err := s.playerRepo.TouchLastLogin(ctx, s.db, player.ID, s.now()); err != nil {
		// Вход уже состоялся, устаревший last_login не повод отказать
		s.logger.Warn("Failed to update last_login", zap.Error(err), zap.String("playerID", player.ID.String()))
	}

	s.logger.Info("Player logged in successfully", zap.String("playerID", player.ID.String()))
	return td, nil
}

// Logout отзывает access токен. Повторный logout не считается ошибкой.
func (s *authServiceImpl) Logout(ctx context.Context, accessUUID string) error {
	if s.sessionRepo == nil || accessUUID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteSession(ctx, accessUUID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Info("No session found to delete during logout (already expired or logged out)")
			return nil
		}
		s.logger.Error("Failed to delete session during logout", zap.Error(err))
		return err
	}
	s.logger.Info("Session deleted successfully during logout")
	return nil
}

func (s *authServiceImpl) GetPlayer(ctx context.Context, playerID uuid.UUID) (*models.Player, error) {
	return s.playerRepo.GetByID(ctx, s.db, playerID)
}

// LinkWallet привязывает внешний кошелек к игроку.
func (s *authServiceImpl) LinkWallet(ctx context.Context, playerID uuid.UUID, walletAddress string) (*models.Player, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, fmt.Errorf("%w: wallet_address is required", models.ErrInvalidInput)
	}
	if err := s.playerRepo.SetWalletAddress(ctx, s.db, playerID, walletAddress); err != nil {
		return nil, err
	}
	s.logger.Info("Wallet linked", zap.String("playerID", playerID.String()))
	return s.playerRepo.GetByID(ctx, s.db, playerID)
}

// createAccessToken выпускает HS256 access токен для игрока.
func (s *authServiceImpl) createAccessToken(playerID uuid.UUID) (*models.TokenDetails, error) {
	now := s.now()
	td := &models.TokenDetails{
		AccessUUID: uuid.NewString(),
		AtExpires:  now.Add(s.cfg.AccessTokenTTL).Unix(),
		PlayerID:   playerID,
	}

	claims := &models.Claims{
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.AccessUUID,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.AtExpires, 0)),
			Subject:   playerID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.String("playerID", playerID.String()))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	td.AccessToken = signed
	return td, nil
}

// applyPepper применяет перец к паролю через HMAC-SHA256.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

// hashPassword generates a bcrypt hash of the password after applying the pepper.
func hashPassword(password, pepper string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password (after applying pepper) with a stored hash.
func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}
