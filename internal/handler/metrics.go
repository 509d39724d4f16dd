package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardian_registrations_total",
		Help: "Total number of successful player registrations.",
	})

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_logins_total",
			Help: "Total number of login attempts by status.",
		},
		[]string{"status"},
	)
)
