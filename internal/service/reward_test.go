package service

import (
	"errors"
	"testing"

	"guardian-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCalculateReward(t *testing.T) {
	cases := []struct {
		name      string
		success   bool
		elapsedMs int64
		want      float64
	}{
		{"failure is zero", false, 100, 0},
		{"failure slow is zero", false, 5000, 0},
		{"instant", true, 0, 0.015},
		{"fast tier upper bound", true, 500, 0.015},
		{"normal tier lower bound", true, 501, 0.01},
		{"normal tier upper bound", true, 1000, 0.01},
		{"slow tier lower bound", true, 1001, 0.005},
		{"very slow", true, 60000, 0.005},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, CalculateReward(tc.success, tc.elapsedMs), 1e-12)
		})
	}
}

func TestRewardTiersOrdered(t *testing.T) {
	var prev int64 = -1
	for i, tier := range RewardTiers {
		if i == len(RewardTiers)-1 {
			assert.Negative(t, tier.MaxElapsedMs, "last tier must be open-ended")
			break
		}
		assert.Greater(t, tier.MaxElapsedMs, prev)
		prev = tier.MaxElapsedMs
	}
}

func TestValidateRemediationInput(t *testing.T) {
	player := uuid.New()

	assert.NoError(t, ValidateRemediationInput(models.RemediationInput{PlayerID: player, ItemID: 1, Success: true, ElapsedMs: 0}))

	err := ValidateRemediationInput(models.RemediationInput{PlayerID: uuid.Nil, ItemID: 1})
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	err = ValidateRemediationInput(models.RemediationInput{PlayerID: player, ItemID: 1, ElapsedMs: -1})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}
