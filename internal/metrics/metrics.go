package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome metrics - Track how gated mutations terminate
var (
	GateOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txgate_gate_outcomes_total",
			Help: "Total number of gated mutations by terminal state",
		},
		[]string{"kind", "state", "reason"},
	)

	EntitiesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txgate_entities_applied_total",
			Help: "Total number of entities persisted after authorization",
		},
		[]string{"kind"},
	)
)

// Ledger metrics - Track receipt polling and contract reads
var (
	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txgate_resolve_duration_seconds",
			Help:    "Time taken to resolve a transaction reference",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 3, 6, 10, 20, 30, 45, 60},
		},
		[]string{"kind"},
	)

	ReceiptPollAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txgate_receipt_poll_attempts",
			Help:    "Number of receipt lookups needed per resolution",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20},
		},
		[]string{"kind"},
	)

	ContractReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txgate_contract_reads_total",
			Help: "Total number of live contract reads by method and result",
		},
		[]string{"method", "result"},
	)
)

// Storage metrics
var (
	ApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "txgate_apply_duration_seconds",
		Help:    "Time taken by the atomic record and entity insert",
		Buckets: prometheus.DefBuckets,
	})
)

// State metrics - Track current system state
var (
	RequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "txgate_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})
)

// Error metrics - Track failures
var (
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txgate_errors_total",
			Help: "Total number of infrastructure errors by component",
		},
		[]string{"component"},
	)
)
