// Package service contains the business logic layer.
//
// This file implements the usage service: a read-only aggregation of live
// counter values across every metered feature for one account.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/zz676/juice-index-sub001/internal/counter"
	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
)

// FeatureUsage is one metered feature's position within its current window.
type FeatureUsage struct {
	Feature   string
	Used      float64
	Limit     float64
	Remaining float64
	Reset     int64 // epoch seconds, 0 for monthly windows
	Unlimited bool
}

// ModelUsage is one model's position within its daily sub-quotas.
type ModelUsage struct {
	ModelID string
	Queries FeatureUsage
	Charts  FeatureUsage
}

// UsageSummary is a point-in-time snapshot of an account's consumption.
type UsageSummary struct {
	Tier     domain.Tier
	Features []FeatureUsage
	Models   []ModelUsage
}

// UsageService aggregates live counter values for reporting.
type UsageService interface {
	// GetUsage reads the current counters for every metered feature and each
	// accessible model. Reads are issued concurrently; a single store failure
	// fails the whole snapshot.
	GetUsage(ctx context.Context, userID string, tier domain.Tier, now time.Time) (*UsageSummary, error)
}

type usageService struct {
	store  counter.Store
	logger *slog.Logger
}

// NewUsageService creates a new UsageService backed by the given counter store.
func NewUsageService(store counter.Store, logger *slog.Logger) UsageService {
	return &usageService{
		store:  store,
		logger: logger,
	}
}

// probe pairs a counter key with the usage slot its value lands in.
type probe struct {
	key  string
	dest *FeatureUsage
}

// GetUsage reads the current counters for every metered feature.
func (s *usageService) GetUsage(ctx context.Context, userID string, tier domain.Tier, now time.Time) (*UsageSummary, error) {
	const op = "usage.get_usage"

	q := domain.GetQuota(tier)
	daily := ratelimit.DailyWindow{}
	weekly := ratelimit.WeeklyWindow{}
	monthly := ratelimit.MonthlyWindow{}

	summary := &UsageSummary{
		Tier: tier,
		Features: []FeatureUsage{
			{Feature: "daily_api", Limit: q.DailyAPI, Reset: daily.Reset(now)},
			{Feature: "studio_queries", Limit: q.StudioQueries, Reset: daily.Reset(now)},
			{Feature: "chart_generations", Limit: q.ChartGenerations, Reset: daily.Reset(now)},
			{Feature: "post_drafts", Limit: q.PostDrafts, Reset: daily.Reset(now)},
			{Feature: "weekly_publishes", Limit: q.WeeklyPublishes, Reset: weekly.Reset(now)},
			{Feature: "csv_exports", Limit: q.CSVExports, Reset: monthly.Reset(now)},
		},
	}

	prefixes := []string{
		ratelimit.PrefixDailyAPI,
		ratelimit.PrefixStudioQuery,
		ratelimit.PrefixChartGen,
		ratelimit.PrefixPostDraft,
		ratelimit.PrefixPublish,
		ratelimit.PrefixCSVExport,
	}
	tokens := []string{
		daily.Token(now), daily.Token(now), daily.Token(now), daily.Token(now),
		weekly.Token(now), monthly.Token(now),
	}

	var probes []probe
	for i := range summary.Features {
		f := &summary.Features[i]
		if f.Limit == domain.Unlimited {
			f.Unlimited = true
			f.Remaining = domain.Unlimited
			continue
		}
		probes = append(probes, probe{
			key:  counterKey(prefixes[i], userID, tokens[i]),
			dest: f,
		})
	}

	for _, m := range domain.AccessibleModels(tier) {
		mq := domain.GetModelQuota(tier, m.ID)
		mu := ModelUsage{
			ModelID: m.ID,
			Queries: FeatureUsage{Feature: "studio_queries", Limit: mq.StudioQueries, Reset: daily.Reset(now)},
			Charts:  FeatureUsage{Feature: "chart_generations", Limit: mq.ChartGenerations, Reset: daily.Reset(now)},
		}
		summary.Models = append(summary.Models, mu)
	}
	for i := range summary.Models {
		mu := &summary.Models[i]
		slots := []*FeatureUsage{&mu.Queries, &mu.Charts}
		modelPrefixes := []string{
			ratelimit.PrefixStudioQuery + ":model:" + mu.ModelID,
			ratelimit.PrefixChartGen + ":model:" + mu.ModelID,
		}
		for j, f := range slots {
			if f.Limit == domain.Unlimited {
				f.Unlimited = true
				f.Remaining = domain.Unlimited
				continue
			}
			probes = append(probes, probe{
				key:  counterKey(modelPrefixes[j], userID, daily.Token(now)),
				dest: f,
			})
		}
	}

	if err := s.fanOut(ctx, probes); err != nil {
		return nil, domain.Internal(err, op, "failed to read usage counters")
	}

	for i := range summary.Features {
		fill(&summary.Features[i])
	}
	for i := range summary.Models {
		fill(&summary.Models[i].Queries)
		fill(&summary.Models[i].Charts)
	}

	return summary, nil
}

// fanOut issues every probe concurrently and returns the first error.
func (s *usageService) fanOut(ctx context.Context, probes []probe) error {
	var wg sync.WaitGroup
	errs := make([]error, len(probes))

	for i := range probes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := probes[i]
			count, ok, err := s.store.Get(ctx, p.key)
			if err != nil {
				errs[i] = err
				return
			}
			if ok {
				p.dest.Used = float64(count)
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// fill derives Remaining once Used is known. An absent counter means zero
// consumption this window.
func fill(f *FeatureUsage) {
	if f.Unlimited {
		return
	}
	f.Remaining = f.Limit - f.Used
	if f.Remaining < 0 {
		f.Remaining = 0
	}
}

func counterKey(prefix, identifier, token string) string {
	return prefix + ":" + identifier + ":" + token
}
