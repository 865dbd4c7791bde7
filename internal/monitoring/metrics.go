// Package monitoring exposes Prometheus counters for intake and eligibility
// checks, collects health snapshots from the store and raises webhook
// alerts when thresholds are breached.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DSSChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fra_dss_checks_total",
			Help: "Eligibility checks by outcome (ok or failure kind)",
		},
		[]string{"outcome"},
	)

	DocumentsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fra_documents_ingested_total",
			Help: "Claim documents processed by intake, by result",
		},
		[]string{"result"},
	)

	OCRDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fra_ocr_duration_seconds",
			Help:    "Time spent extracting text from one document",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"kind"},
	)

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fra_geocode_lookups_total",
			Help: "Address lookups by result (matched, unmatched, error)",
		},
		[]string{"result"},
	)

	Claims = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fra_claims",
			Help: "Stored claims at the last health snapshot",
		},
		[]string{"state"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fra_llm_tokens_total",
			Help: "Tokens sent to and received from the LLM helpers, by phase and direction",
		},
		[]string{"phase", "direction"},
	)
)
