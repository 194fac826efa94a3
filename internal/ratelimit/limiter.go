// Package ratelimit implements the tier-aware, time-windowed quota engine.
//
// This file contains the generic increment-and-compare limiter. Feature
// limiters in features.go are thin instantiations with a fixed key prefix,
// window, and per-tier limit.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/zz676/juice-index-sub001/internal/counter"
	"github.com/zz676/juice-index-sub001/internal/metrics"
)

// Result is the caller-facing outcome of a limit check.
//
// Limit and Remaining are float64 so that unlimited tiers carry positive
// infinity through arithmetic unchanged. Reset is epoch seconds of the next
// window boundary; monthly windows report 0 and rely on the store TTL.
type Result struct {
	Success   bool
	Limit     float64
	Remaining float64
	Reset     int64
}

// Limiter is the increment-and-compare engine over the atomic counter store.
type Limiter struct {
	store  counter.Store
	logger *slog.Logger
}

// New creates a Limiter backed by the given counter store.
func New(store counter.Store, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		logger: logger,
	}
}

// CheckAndIncrement consumes one unit against the counter identified by
// (prefix, identifier, window period) and reports whether the action is
// allowed.
//
// An infinite limit succeeds without touching the store; the store may
// legitimately be unreachable in contexts where only unlimited tiers are
// exercised. A zero limit fails without touching the store (feature disabled
// on the tier).
//
// The Nth action exactly at the limit still succeeds; the (N+1)th fails.
//
// Any store error (network failure, non-2xx status, malformed response)
// fails closed: the check is denied with remaining 0, the error is logged,
// and it is never propagated. Callers cannot distinguish "over quota" from
// "backend degraded".
func (l *Limiter) CheckAndIncrement(ctx context.Context, prefix, identifier string, limit float64, w Window, now time.Time) Result {
	reset := w.Reset(now)

	if math.IsInf(limit, 1) {
		return Result{Success: true, Limit: limit, Remaining: math.Inf(1), Reset: reset}
	}
	if limit == 0 {
		return Result{Success: false, Limit: 0, Remaining: 0, Reset: reset}
	}

	key := fmt.Sprintf("%s:%s:%s", prefix, identifier, w.Token(now))

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return l.failClosed(prefix, identifier, limit, reset, "incr", err)
	}

	// First write of the period starts the TTL clock. Two concurrent "first"
	// increments may both land here; Expire is idempotent, so the race is
	// harmless.
	if count == 1 {
		ttl := w.TTL(now)
		if ttl < time.Second {
			ttl = time.Second
		}
		if err := l.store.Expire(ctx, key, ttl); err != nil {
			return l.failClosed(prefix, identifier, limit, reset, "expire", err)
		}
	}

	remaining := limit - float64(count)
	if remaining < 0 {
		remaining = 0
	}

	success := float64(count) <= limit
	if success {
		metrics.LimiterAllowed(prefix)
	} else {
		metrics.LimiterDenied(prefix)
	}

	return Result{
		Success:   success,
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}
}

// failClosed denies the check after a store error, echoing the requested
// limit and reset back to the caller.
func (l *Limiter) failClosed(prefix, identifier string, limit float64, reset int64, storeOp string, err error) Result {
	l.logger.Error("counter store unavailable, failing closed",
		"prefix", prefix,
		"identifier", identifier,
		"store_op", storeOp,
		"error", err,
	)
	metrics.LimiterFailedClosed(prefix)
	metrics.StoreError(storeOp)

	return Result{
		Success:   false,
		Limit:     limit,
		Remaining: 0,
		Reset:     reset,
	}
}
