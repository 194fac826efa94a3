package ratelimit

import (
	"context"
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// Counter key prefixes. Keys follow {prefix}:{identifier}:{window-token} so
// live counters stay inspectable in the store, e.g.
//
//	studio:query:u123:20260830
//	publish:u123:2026W35
//	csv:u123:202608
//	studio:query:model:forecast-xl:u123:20260830
const (
	PrefixDailyAPI    = "api"
	PrefixStudioQuery = "studio:query"
	PrefixChartGen    = "studio:chart"
	PrefixPostDraft   = "post:draft"
	PrefixCSVExport   = "csv"
	PrefixPublish     = "publish"
)

// Service exposes the feature-specific limiters. Each check is a thin
// instantiation of the engine with a fixed prefix, window, and the tier's
// quota value as the limit.
type Service struct {
	limiter *Limiter
}

// NewService creates the feature limiter service.
func NewService(limiter *Limiter) *Service {
	return &Service{limiter: limiter}
}

// CheckDailyAPI consumes one unit of the tier's daily API quota.
func (s *Service) CheckDailyAPI(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixDailyAPI, userID, q.DailyAPI, DailyWindow{}, now)
}

// CheckStudioQuery consumes one unit of the tier's daily studio query quota.
func (s *Service) CheckStudioQuery(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixStudioQuery, userID, q.StudioQueries, DailyWindow{}, now)
}

// CheckChartGeneration consumes one unit of the tier's daily chart quota.
func (s *Service) CheckChartGeneration(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixChartGen, userID, q.ChartGenerations, DailyWindow{}, now)
}

// CheckPostDraft consumes one unit of the tier's daily post draft quota.
func (s *Service) CheckPostDraft(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixPostDraft, userID, q.PostDrafts, DailyWindow{}, now)
}

// CheckWeeklyPublish consumes one unit of the tier's ISO-week publish quota.
func (s *Service) CheckWeeklyPublish(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixPublish, userID, q.WeeklyPublishes, WeeklyWindow{}, now)
}

// CheckCSVExport consumes one unit of the tier's monthly CSV export quota.
//
// The free tier's limit is 0, so the engine denies without a store call;
// free accounts never reach the network for exports. The result's Reset is
// always 0 for monthly windows; the store TTL governs expiry.
func (s *Service) CheckCSVExport(ctx context.Context, userID string, tier domain.Tier, now time.Time) Result {
	q := domain.GetQuota(tier)
	return s.limiter.CheckAndIncrement(ctx, PrefixCSVExport, userID, q.CSVExports, MonthlyWindow{}, now)
}
