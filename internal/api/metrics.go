package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procedurehub_signups_total",
		Help: "Accounts created.",
	})

	signinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procedurehub_signins_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})

	proceduresCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procedurehub_procedures_created_total",
		Help: "Procedures created.",
	})

	acknowledgmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procedurehub_acknowledgments_total",
		Help: "Acknowledgment submissions by outcome (recorded or duplicate).",
	}, []string{"outcome"})
)
