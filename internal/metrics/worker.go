package metrics

import "time"

// RunCompleted records a successful automation run.
func RunCompleted(kind string, duration time.Duration) {
	AutomationRunsTotal.WithLabelValues(kind, "completed").Inc()
	AutomationRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RunFailed records a failed automation run.
func RunFailed(kind string) {
	AutomationRunsTotal.WithLabelValues(kind, "failed").Inc()
}

// RunSkippedPaused records a run skipped because a pause window was active.
func RunSkippedPaused(kind string) {
	AutomationRunsTotal.WithLabelValues(kind, "paused").Inc()
	AutomationPausedSkipsTotal.WithLabelValues(kind).Inc()
}
