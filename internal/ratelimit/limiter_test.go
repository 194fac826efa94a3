package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// fakeStore records every call so tests can assert exactly which store
// operations a check performed.
type fakeStore struct {
	counts map[string]int64
	ttls   map[string]time.Duration

	incrCalls   int
	getCalls    int
	expireCalls int

	incrErr   error
	expireErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	f.incrCalls++
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeStore) Get(_ context.Context, key string) (int64, bool, error) {
	f.getCalls++
	n, ok := f.counts[key]
	return n, ok, nil
}

func (f *fakeStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.expireCalls++
	if f.expireErr != nil {
		return f.expireErr
	}
	f.ttls[key] = ttl
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestCheckAndIncrement_UnlimitedSkipsStore(t *testing.T) {
	store := newFakeStore()
	// A nil-backed store would panic if touched; the fake's call counters
	// prove it never is.
	l := New(store, testLogger())

	now := utc(2026, time.August, 30, 12, 0, 0)
	res := l.CheckAndIncrement(context.Background(), PrefixStudioQuery, "u1", domain.Unlimited, DailyWindow{}, now)

	assert.True(t, res.Success)
	assert.True(t, math.IsInf(res.Limit, 1))
	assert.True(t, math.IsInf(res.Remaining, 1))
	assert.Zero(t, store.incrCalls)
	assert.Zero(t, store.expireCalls)
}

func TestCheckAndIncrement_ZeroLimitSkipsStore(t *testing.T) {
	store := newFakeStore()
	l := New(store, testLogger())

	now := utc(2026, time.August, 30, 12, 0, 0)
	res := l.CheckAndIncrement(context.Background(), PrefixCSVExport, "u1", 0, MonthlyWindow{}, now)

	assert.False(t, res.Success)
	assert.Zero(t, res.Limit)
	assert.Zero(t, res.Remaining)
	assert.Zero(t, store.incrCalls)
	assert.Zero(t, store.expireCalls)
}

func TestCheckAndIncrement_LimitBoundary(t *testing.T) {
	store := newFakeStore()
	l := New(store, testLogger())
	now := utc(2026, time.August, 30, 12, 0, 0)

	// limit=3: counts 1,2,3 succeed with remaining 2,1,0; count 4 fails.
	wants := []struct {
		success   bool
		remaining float64
	}{
		{true, 2},
		{true, 1},
		{true, 0}, // the action exactly at the limit still succeeds
		{false, 0},
	}

	for i, want := range wants {
		res := l.CheckAndIncrement(context.Background(), PrefixChartGen, "u1", 3, DailyWindow{}, now)
		assert.Equal(t, want.success, res.Success, "call %d", i+1)
		assert.Equal(t, want.remaining, res.Remaining, "call %d", i+1)
		assert.Equal(t, 3.0, res.Limit, "call %d", i+1)
	}
}

func TestCheckAndIncrement_KeyAndTTL(t *testing.T) {
	store := newFakeStore()
	l := New(store, testLogger())
	now := utc(2026, time.August, 30, 23, 59, 30)

	res := l.CheckAndIncrement(context.Background(), PrefixStudioQuery, "u1", 5, DailyWindow{}, now)
	require.True(t, res.Success)

	key := "studio:query:u1:20260830"
	require.Contains(t, store.counts, key)
	assert.Equal(t, 30*time.Second, store.ttls[key])
	assert.Equal(t, utc(2026, time.August, 31, 0, 0, 0).Unix(), res.Reset)

	// Only the first increment of a period sets the TTL.
	l.CheckAndIncrement(context.Background(), PrefixStudioQuery, "u1", 5, DailyWindow{}, now)
	assert.Equal(t, 1, store.expireCalls)
}

func TestCheckAndIncrement_TTLNeverBelowOneSecond(t *testing.T) {
	store := newFakeStore()
	l := New(store, testLogger())

	// 200ms before midnight the window TTL is below a second; the engine
	// clamps it up so the key cannot get an instant or negative expiry.
	now := time.Date(2026, time.August, 30, 23, 59, 59, 800_000_000, time.UTC)
	res := l.CheckAndIncrement(context.Background(), PrefixStudioQuery, "u1", 5, DailyWindow{}, now)

	require.True(t, res.Success)
	assert.Equal(t, time.Second, store.ttls["studio:query:u1:20260830"])
}

func TestCheckAndIncrement_FailClosedOnIncrError(t *testing.T) {
	store := newFakeStore()
	store.incrErr = errors.New("connection refused")
	l := New(store, testLogger())
	now := utc(2026, time.August, 30, 12, 0, 0)

	res := l.CheckAndIncrement(context.Background(), PrefixPublish, "u1", 5, WeeklyWindow{}, now)

	// Store failure denies the action; the requested limit and reset are
	// echoed back so callers can still render the denial.
	assert.False(t, res.Success)
	assert.Equal(t, 5.0, res.Limit)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, WeeklyWindow{}.Reset(now), res.Reset)
}

func TestCheckAndIncrement_FailClosedOnExpireError(t *testing.T) {
	store := newFakeStore()
	store.expireErr = errors.New("timeout")
	l := New(store, testLogger())
	now := utc(2026, time.August, 30, 12, 0, 0)

	res := l.CheckAndIncrement(context.Background(), PrefixPublish, "u1", 5, WeeklyWindow{}, now)

	assert.False(t, res.Success)
	assert.Zero(t, res.Remaining)
}

func TestCheckAndIncrement_SeparatePeriodsSeparateCounters(t *testing.T) {
	store := newFakeStore()
	l := New(store, testLogger())

	day1 := utc(2026, time.August, 30, 12, 0, 0)
	day2 := utc(2026, time.August, 31, 12, 0, 0)

	res := l.CheckAndIncrement(context.Background(), PrefixPostDraft, "u1", 1, DailyWindow{}, day1)
	require.True(t, res.Success)
	res = l.CheckAndIncrement(context.Background(), PrefixPostDraft, "u1", 1, DailyWindow{}, day1)
	require.False(t, res.Success)

	// A new period starts a fresh counter.
	res = l.CheckAndIncrement(context.Background(), PrefixPostDraft, "u1", 1, DailyWindow{}, day2)
	assert.True(t, res.Success)
}
