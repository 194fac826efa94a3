package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

func TestCheckCSVExport_FreeTierNeverTouchesStore(t *testing.T) {
	store := newFakeStore()
	svc := NewService(New(store, testLogger()))
	now := utc(2026, time.August, 30, 12, 0, 0)

	res := svc.CheckCSVExport(context.Background(), "u1", domain.TierFree, now)

	assert.False(t, res.Success)
	assert.Zero(t, res.Limit)
	assert.Zero(t, store.incrCalls)
}

func TestCheckCSVExport_MonthlyResetIsAlwaysZero(t *testing.T) {
	store := newFakeStore()
	svc := NewService(New(store, testLogger()))
	now := utc(2026, time.August, 30, 12, 0, 0)

	// Unlike daily and weekly checks, the monthly limiter reports reset 0 and
	// relies on the store TTL. Callers depend on reset==0 meaning "see TTL".
	res := svc.CheckCSVExport(context.Background(), "u1", domain.TierStarter, now)

	require.True(t, res.Success)
	assert.Equal(t, int64(0), res.Reset)
	assert.Contains(t, store.counts, "csv:u1:202608")
}

func TestFeatureKeyNaming(t *testing.T) {
	store := newFakeStore()
	svc := NewService(New(store, testLogger()))
	now := utc(2026, time.August, 30, 12, 0, 0)
	ctx := context.Background()

	svc.CheckDailyAPI(ctx, "u1", domain.TierStarter, now)
	svc.CheckStudioQuery(ctx, "u1", domain.TierStarter, now)
	svc.CheckChartGeneration(ctx, "u1", domain.TierStarter, now)
	svc.CheckPostDraft(ctx, "u1", domain.TierStarter, now)
	svc.CheckWeeklyPublish(ctx, "u1", domain.TierStarter, now)
	svc.CheckCSVExport(ctx, "u1", domain.TierStarter, now)

	for _, key := range []string{
		"api:u1:20260830",
		"studio:query:u1:20260830",
		"studio:chart:u1:20260830",
		"post:draft:u1:20260830",
		"publish:u1:2026W35",
		"csv:u1:202608",
	} {
		assert.Contains(t, store.counts, key)
	}
}

func TestCheckWeeklyPublish_UsesTierLimit(t *testing.T) {
	store := newFakeStore()
	svc := NewService(New(store, testLogger()))
	now := utc(2026, time.August, 30, 12, 0, 0)
	ctx := context.Background()

	// Free tier allows a single publish per ISO week.
	res := svc.CheckWeeklyPublish(ctx, "u1", domain.TierFree, now)
	require.True(t, res.Success)

	res = svc.CheckWeeklyPublish(ctx, "u1", domain.TierFree, now)
	assert.False(t, res.Success)

	// Reset points at the next Monday midnight, strictly after now.
	assert.Equal(t, NextMondayUTC(now).Unix(), res.Reset)
}

func TestEnterpriseChecksSkipStore(t *testing.T) {
	store := newFakeStore()
	svc := NewService(New(store, testLogger()))
	now := utc(2026, time.August, 30, 12, 0, 0)
	ctx := context.Background()

	svc.CheckDailyAPI(ctx, "u1", domain.TierEnterprise, now)
	svc.CheckStudioQuery(ctx, "u1", domain.TierEnterprise, now)
	svc.CheckCSVExport(ctx, "u1", domain.TierEnterprise, now)
	res := svc.CheckWeeklyPublish(ctx, "u1", domain.TierEnterprise, now)

	assert.True(t, res.Success)
	assert.Zero(t, store.incrCalls)
	assert.Zero(t, store.expireCalls)
}
