package service

import (
	"fmt"

	"guardian-server/internal/models"

	"github.com/google/uuid"
)

// BaseRewardUnit - награда за успешную попытку до применения множителя.
const BaseRewardUnit = 0.01

// RewardTier - ступень таблицы скорости. Попытка попадает в первую ступень,
// у которой MaxElapsedMs >= elapsed. MaxElapsedMs < 0 означает "без верхней границы".
type RewardTier struct {
	MaxElapsedMs int64
	Multiplier   float64
}

// RewardTiers упорядочены по возрастанию MaxElapsedMs, последняя ступень открыта сверху.
var RewardTiers = []RewardTier{
	{MaxElapsedMs: 500, Multiplier: 1.5},
	{MaxElapsedMs: 1000, Multiplier: 1.0},
	{MaxElapsedMs: -1, Multiplier: 0.5},
}

// SpeedMultiplier возвращает множитель ступени для времени выполнения.
func SpeedMultiplier(elapsedMs int64) float64 {
	for _, tier := range RewardTiers {
		if tier.MaxElapsedMs < 0 || elapsedMs <= tier.MaxElapsedMs {
			return tier.Multiplier
		}
	}
	return RewardTiers[len(RewardTiers)-1].Multiplier
}

// CalculateReward - прирост прогресса жетона за попытку. Неудачная попытка дает 0.
func CalculateReward(success bool, elapsedMs int64) float64 {
	if !success {
		return 0
	}
	return BaseRewardUnit * SpeedMultiplier(elapsedMs)
}

// ValidateRemediationInput отсекает некорректный ввод до открытия транзакции.
func ValidateRemediationInput(in models.RemediationInput) error {
	if in.PlayerID == uuid.Nil {
		return models.ErrUnauthorized
	}
	if in.ElapsedMs < 0 {
		return fmt.Errorf("%w: elapsed_ms must not be negative", models.ErrInvalidInput)
	}
	return nil
}
