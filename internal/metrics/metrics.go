package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "juiceindex"

// Rate limiter metrics
var (
	LimiterChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limiter_checks_total",
			Help:      "Total number of rate limit checks by feature and outcome",
		},
		[]string{"feature", "outcome"},
	)

	CounterStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_store_errors_total",
			Help:      "Total number of counter store failures by operation",
		},
		[]string{"op"},
	)
)

// Automation worker metrics
var (
	AutomationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "automation_runs_total",
			Help:      "Total number of automation runs by kind and status",
		},
		[]string{"kind", "status"},
	)

	AutomationRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "automation_run_duration_seconds",
			Help:      "Automation run time distribution",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"kind"},
	)

	AutomationPausedSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "automation_paused_skips_total",
			Help:      "Automation runs skipped because a pause schedule was active",
		},
		[]string{"kind"},
	)
)

// Business metrics
var (
	ExportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "csv_exports_generated_total",
			Help:      "Total number of CSV exports generated",
		},
	)
)
