// Package metrics defines the Prometheus collectors for feature evaluation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by sessions and features.
type Metrics struct {
	Proposals        *prometheus.CounterVec
	Decisions        *prometheus.CounterVec
	EstimateDuration *prometheus.HistogramVec
	LedgerUnderflows prometheus.Counter
	DocumentScore    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Proposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peredisc_proposals_total",
				Help: "Speculative states estimated, by feature.",
			},
			[]string{"feature"},
		),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "peredisc_decisions_total",
				Help: "Candidate outcomes by feature and outcome (accepted, rejected, stale).",
			},
			[]string{"feature", "outcome"},
		),
		EstimateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "peredisc_estimate_duration_seconds",
				Help:    "Time spent cloning and estimating a speculative state.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"feature"},
		),
		LedgerUnderflows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "peredisc_ledger_underflows_total",
				Help: "Retirements in accepted states that found no ledger entry to remove.",
			},
		),
		DocumentScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "peredisc_document_score",
				Help: "Current accepted score per document.",
			},
			[]string{"document"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Proposals,
			m.Decisions,
			m.EstimateDuration,
			m.LedgerUnderflows,
			m.DocumentScore,
		)
	}
	return m
}
