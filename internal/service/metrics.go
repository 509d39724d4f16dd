package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remediationAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_remediation_attempts_total",
			Help: "Total number of remediation attempts by outcome.",
		},
		[]string{"outcome"}, // committed, not_found, invalid, error
	)

	remediationIncrementTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_remediation_increment_total",
		Help: "Sum of committed guardian token progress increments.",
	})

	guardianTokensCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_tokens_completed_total",
		Help: "Total number of guardian tokens completed.",
	})

	remediationTxDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guardian_remediation_tx_duration_seconds",
		Help:    "Duration of the remediation transaction including lock wait.",
		Buckets: prometheus.DefBuckets,
	})

	leaderboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_leaderboard_cache_total",
			Help: "Leaderboard cache lookups by result.",
		},
		[]string{"result"}, // hit, miss, error
	)

	playerActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_player_actions_total",
			Help: "Total number of recorded player actions by kind.",
		},
		[]string{"action"},
	)
)
