package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCounterStore serves pre-seeded counter values and records reads.
// Reads arrive concurrently from the usage fan-out.
type fakeCounterStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	getKeys []string
	getErr  error
}

func (f *fakeCounterStore) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getKeys = append(f.getKeys, key)
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	n, ok := f.counts[key]
	return n, ok, nil
}

func (f *fakeCounterStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func TestGetUsageStarter(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeCounterStore{counts: map[string]int64{
		"api:u1:20260830":                             40,
		"studio:query:u1:20260830":                    7,
		"publish:u1:2026W35":                          2,
		"csv:u1:202608":                               1,
		"studio:query:model:insight-plus:u1:20260830": 3,
	}}
	svc := NewUsageService(store, testLogger())

	summary, err := svc.GetUsage(context.Background(), "u1", domain.TierStarter, now)
	require.NoError(t, err)

	byFeature := map[string]FeatureUsage{}
	for _, f := range summary.Features {
		byFeature[f.Feature] = f
	}

	api := byFeature["daily_api"]
	assert.Equal(t, float64(40), api.Used)
	assert.Equal(t, float64(1000), api.Limit)
	assert.Equal(t, float64(960), api.Remaining)
	assert.False(t, api.Unlimited)

	queries := byFeature["studio_queries"]
	assert.Equal(t, float64(7), queries.Used)
	assert.Equal(t, float64(18), queries.Remaining)

	// Absent counter means nothing consumed this window.
	drafts := byFeature["post_drafts"]
	assert.Equal(t, float64(0), drafts.Used)
	assert.Equal(t, float64(10), drafts.Remaining)

	csv := byFeature["csv_exports"]
	assert.Equal(t, float64(1), csv.Used)
	assert.Equal(t, int64(0), csv.Reset)

	// Starter can reach insight-lite and insight-plus.
	require.Len(t, summary.Models, 2)
	var plus *ModelUsage
	for i := range summary.Models {
		if summary.Models[i].ModelID == "insight-plus" {
			plus = &summary.Models[i]
		}
	}
	require.NotNil(t, plus)
	assert.Equal(t, float64(3), plus.Queries.Used)
	assert.Equal(t, float64(15), plus.Queries.Limit)
	assert.Equal(t, float64(12), plus.Queries.Remaining)
}

func TestGetUsageEnterpriseSkipsStore(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeCounterStore{counts: map[string]int64{}}
	svc := NewUsageService(store, testLogger())

	summary, err := svc.GetUsage(context.Background(), "u1", domain.TierEnterprise, now)
	require.NoError(t, err)

	assert.Empty(t, store.getKeys, "unlimited quotas must not reach the store")
	for _, f := range summary.Features {
		assert.True(t, f.Unlimited, f.Feature)
		assert.Equal(t, domain.Unlimited, f.Remaining)
	}
	for _, m := range summary.Models {
		assert.True(t, m.Queries.Unlimited)
		assert.True(t, m.Charts.Unlimited)
	}
}

func TestGetUsageStoreError(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeCounterStore{
		counts: map[string]int64{},
		getErr: errors.New("connection refused"),
	}
	svc := NewUsageService(store, testLogger())

	_, err := svc.GetUsage(context.Background(), "u1", domain.TierFree, now)
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}

func TestGetUsageRemainingFloorsAtZero(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &fakeCounterStore{counts: map[string]int64{
		"api:u1:20260830": 150,
	}}
	svc := NewUsageService(store, testLogger())

	summary, err := svc.GetUsage(context.Background(), "u1", domain.TierFree, now)
	require.NoError(t, err)

	for _, f := range summary.Features {
		if f.Feature == "daily_api" {
			assert.Equal(t, float64(150), f.Used)
			assert.Equal(t, float64(0), f.Remaining)
		}
	}
}
