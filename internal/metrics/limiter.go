package metrics

// LimiterAllowed records a limit check that succeeded.
func LimiterAllowed(feature string) {
	LimiterChecksTotal.WithLabelValues(feature, "allowed").Inc()
}

// LimiterDenied records a limit check rejected because the quota was spent.
func LimiterDenied(feature string) {
	LimiterChecksTotal.WithLabelValues(feature, "denied").Inc()
}

// LimiterFailedClosed records a limit check denied because the counter store
// was unreachable or returned garbage.
func LimiterFailedClosed(feature string) {
	LimiterChecksTotal.WithLabelValues(feature, "fail_closed").Inc()
}

// StoreError records a counter store failure by operation (incr, get, expire).
func StoreError(op string) {
	CounterStoreErrorsTotal.WithLabelValues(op).Inc()
}
