package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guardian-server/internal/interfaces"
	"guardian-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionRatingDelta - прибавка к рейтингу игрока за завершенный жетон.
const CompletionRatingDelta = 0.1

// eventPublishTimeout ограничивает публикацию события после коммита.
const eventPublishTimeout = 5 * time.Second

// RemediationService применяет попытки ремедиации к общим жетонам.
type RemediationService interface {
	ProcessRemediation(ctx context.Context, in models.RemediationInput) (*models.RemediationResult, error)
}

type remediationServiceImpl struct {
	txManager  interfaces.TxManager
	tokenRepo  interfaces.GuardianTokenRepository
	itemRepo   interfaces.TrashItemRepository
	playerRepo interfaces.PlayerRepository
	publisher  interfaces.GuardianEventPublisher
	now        func() time.Time
	logger     *zap.Logger
}

// NewRemediationService создает сервис. publisher может быть nil: тогда события не публикуются.
func NewRemediationService(
	txManager interfaces.TxManager,
	tokenRepo interfaces.GuardianTokenRepository,
	itemRepo interfaces.TrashItemRepository,
	playerRepo interfaces.PlayerRepository,
	publisher interfaces.GuardianEventPublisher,
	logger *zap.Logger,
) RemediationService {
	return &remediationServiceImpl{
		txManager:  txManager,
		tokenRepo:  tokenRepo,
		itemRepo:   itemRepo,
		playerRepo: playerRepo,
		publisher:  publisher,
		now:        time.Now,
		logger:     logger.Named("RemediationService"),
	}
}

// ProcessRemediation выполняет попытку целиком в одной транзакции:
// проверка предмета и игрока, блокировка самого старого открытого жетона, запись вклада
// и, если жетон завершен этим вкладом, начисление игроку. Любая ошибка откатывает все.
func (s *remediationServiceImpl) ProcessRemediation(ctx context.Context, in models.RemediationInput) (*models.RemediationResult, error) {
	log := s.logger.With(
		zap.String("playerID", in.PlayerID.String()),
		zap.Int64("itemID", in.ItemID),
		zap.Bool("success", in.Success),
		zap.Int64("elapsedMs", in.ElapsedMs),
	)

	if err := ValidateRemediationInput(in); err != nil {
		remediationAttemptsTotal.WithLabelValues("invalid").Inc()
		log.Debug("Remediation input rejected", zap.Error(err))
		return nil, err
	}

	increment := CalculateReward(in.Success, in.ElapsedMs)
	result := &models.RemediationResult{
		PlayerID:       in.PlayerID,
		ItemID:         in.ItemID,
		TokenIncrement: increment,
	}

	var outcome *models.ContributionOutcome
	started := time.Now()
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		exists, err := s.itemRepo.Exists(ctx, tx, in.ItemID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("item %d: %w", in.ItemID, models.ErrTrashItemNotFound)
		}

		// Вклад неизвестного игрока не пишется ни в какой жетон
		known, err := s.playerRepo.Exists(ctx, tx, in.PlayerID)
		if err != nil {
			return err
		}
		if !known {
			return fmt.Errorf("player %s: %w", in.PlayerID, models.ErrPlayerNotFound)
		}

		// Неудачная попытка тоже блокирует жетон и пишет нулевой вклад,
		// обновляя последнего участника. Нулевой вклад жетон не завершает.
		token, err := s.tokenRepo.LockOldestOpen(ctx, tx)
		if err != nil {
			if errors.Is(err, models.ErrNoOpenGuardianToken) {
				log.Info("No open guardian token, contribution is a no-op")
				outcome = &models.ContributionOutcome{}
				return nil
			}
			return err
		}

		now := s.now()
		outcome, err = s.tokenRepo.ApplyContribution(ctx, tx, token, increment, in.PlayerID, now)
		if err != nil {
			return err
		}

		if !outcome.Completed {
			return nil
		}
		if !in.Success {
			// Нулевой вклад не может завершить жетон
			return fmt.Errorf("guardian token %s completed by a failed attempt", outcome.TokenID)
		}
		return s.playerRepo.ApplyTokenCompletion(ctx, tx, in.PlayerID, CompletionRatingDelta, now)
	})
	remediationTxDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, models.ErrTrashItemNotFound):
			remediationAttemptsTotal.WithLabelValues("not_found").Inc()
			log.Info("Remediation rejected: unknown trash item")
		case errors.Is(err, models.ErrPlayerNotFound):
			remediationAttemptsTotal.WithLabelValues("not_found").Inc()
			log.Warn("Remediation rolled back: contributing player not found")
		default:
			remediationAttemptsTotal.WithLabelValues("error").Inc()
			log.Error("Remediation transaction failed", zap.Error(err))
		}
		return nil, err
	}

	remediationAttemptsTotal.WithLabelValues("committed").Inc()
	remediationIncrementTotal.Add(increment)

	if outcome != nil && outcome.TokenSelected {
		tokenID := outcome.TokenID
		progress := outcome.Progress
		result.TokenID = &tokenID
		result.TokenProgress = &progress
		result.TokenCompleted = outcome.Completed
	}

	if result.TokenCompleted {
		guardianTokensCompletedTotal.Inc()
		log.Info("Guardian token completed", zap.String("tokenID", outcome.TokenID.String()), zap.Float64("progress", outcome.Progress))
		s.publishCompletion(ctx, in.PlayerID, outcome)
	} else {
		log.Debug("Remediation committed", zap.Float64("increment", increment))
	}

	return result, nil
}

// publishCompletion отправляет событие после коммита. Ошибки только логируются:
// результат транзакции уже зафиксирован.
func (s *remediationServiceImpl) publishCompletion(ctx context.Context, playerID uuid.UUID, outcome *models.ContributionOutcome) {
	if s.publisher == nil {
		return
	}
	completedAt := s.now().UTC()
	if outcome.CompletedAt != nil {
		completedAt = outcome.CompletedAt.UTC()
	}
	event := models.GuardianTokenCompletedEvent{
		EventID:     uuid.NewString(),
		TokenID:     outcome.TokenID,
		PlayerID:    playerID,
		Progress:    outcome.Progress,
		CompletedAt: completedAt,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := s.publisher.PublishTokenCompleted(pubCtx, event); err != nil {
		s.logger.Error("Failed to publish guardian token completed event",
			zap.Error(err),
			zap.String("tokenID", event.TokenID.String()),
			zap.String("playerID", playerID.String()))
	}
}
