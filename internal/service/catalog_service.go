package service

import (
	"context"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"go.uber.org/zap"
)

// CatalogService - чтение каталога предметов и открытых жетонов.
type CatalogService interface {
	ListItems(ctx context.Context) ([]models.TrashItem, error)
	GetItem(ctx context.Context, itemID int64) (*models.TrashItem, error)
	ListOpenTokens(ctx context.Context, limit int) ([]models.GuardianToken, error)
	// EnsureOpenTokens доводит число открытых жетонов до minOpen и возвращает число созданных.
	EnsureOpenTokens(ctx context.Context, minOpen int) (int, error)
}

type catalogServiceImpl struct {
	db        interfaces.DBTX
	txManager interfaces.TxManager
	itemRepo  interfaces.TrashItemRepository
	tokenRepo interfaces.GuardianTokenRepository
	logger    *zap.Logger
}

func NewCatalogService(db interfaces.DBTX, txManager interfaces.TxManager, itemRepo interfaces.TrashItemRepository, tokenRepo interfaces.GuardianTokenRepository, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{
		db:        db,
		txManager: txManager,
		itemRepo:  itemRepo,
		tokenRepo: tokenRepo,
		logger:    logger.Named("CatalogService"),
	}
}

func (s *catalogServiceImpl) ListItems(ctx context.Context) ([]models.TrashItem, error) {
	return s.itemRepo.List(ctx, s.db)
}

func (s *catalogServiceImpl) GetItem(ctx context.Context, itemID int64) (*models.TrashItem, error) {
	return s.itemRepo.GetByID(ctx, s.db, itemID)
}

// ListOpenTokens - открытые жетоны в порядке, в котором они получают вклады.
func (s *catalogServiceImpl) ListOpenTokens(ctx context.Context, limit int) ([]models.GuardianToken, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.tokenRepo.ListOpen(ctx, s.db, limit)
}

// EnsureOpenTokens безопасно вызывать с нескольких экземпляров одновременно:
// подсчет и вставка идут под общей advisory-блокировкой.
func (s *catalogServiceImpl) EnsureOpenTokens(ctx context.Context, minOpen int) (int, error) {
	if minOpen <= 0 {
		return 0, nil
	}
	var created int
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		var err error
		created, err = s.tokenRepo.TopUpOpen(ctx, tx, minOpen)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to replenish open guardian tokens", zap.Error(err), zap.Int("minOpen", minOpen))
		return 0, err
	}
	if created > 0 {
		s.logger.Info("Replenished open guardian tokens", zap.Int("created", created), zap.Int("minOpen", minOpen))
	}
	return created, nil
}
