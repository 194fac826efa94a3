// Package domain contains core business types and interfaces.
//
// This file defines the per-tier quota tables that drive rate limiting.
package domain

import "math"

// Unlimited marks a quota field with no ceiling.
//
// Unlimited is positive infinity rather than a sentinel integer so that
// downstream arithmetic (remaining = max(0, limit - count)) stays correct
// without special-casing every call site.
var Unlimited = math.Inf(1)

// Quota defines the named limits for a subscription tier.
//
// All fields except DelayDays must be monotonically non-decreasing as the
// tier rank increases. DelayDays is inverse-sense (fresher data on higher
// tiers) and must be non-increasing.
type Quota struct {
	DailyAPI         float64 // API calls per UTC day
	StudioQueries    float64 // studio queries per UTC day
	ChartGenerations float64 // chart generations per UTC day
	PostDrafts       float64 // post drafts per UTC day
	MaxDrafts        float64 // drafts held at once
	MaxScheduled     float64 // scheduled posts held at once
	CSVExports       float64 // CSV exports per calendar month
	WeeklyPublishes  float64 // publishes per ISO week
	DelayDays        float64 // market data staleness in days
	HistMonths       float64 // historical lookback in months
	Seats            float64 // workspace members
	XAccounts        float64 // connected social accounts
	MaxAPIKeys       float64 // active API keys
}

// tierQuotas maps each tier to its quota table.
// Free tier is deliberately strict; Enterprise is unlimited on usage caps.
var tierQuotas = map[Tier]Quota{
	TierFree: {
		DailyAPI:         100,
		StudioQueries:    5,
		ChartGenerations: 3,
		PostDrafts:       2,
		MaxDrafts:        3,
		MaxScheduled:     0,
		CSVExports:       0,
		WeeklyPublishes:  1,
		DelayDays:        7,
		HistMonths:       3,
		Seats:            1,
		XAccounts:        0,
		MaxAPIKeys:       1,
	},
	TierStarter: {
		DailyAPI:         1000,
		StudioQueries:    25,
		ChartGenerations: 10,
		PostDrafts:       10,
		MaxDrafts:        20,
		MaxScheduled:     10,
		CSVExports:       5,
		WeeklyPublishes:  5,
		DelayDays:        3,
		HistMonths:       12,
		Seats:            2,
		XAccounts:        1,
		MaxAPIKeys:       3,
	},
	TierPro: {
		DailyAPI:         10000,
		StudioQueries:    100,
		ChartGenerations: 50,
		PostDrafts:       50,
		MaxDrafts:        100,
		MaxScheduled:     50,
		CSVExports:       20,
		WeeklyPublishes:  20,
		DelayDays:        1,
		HistMonths:       36,
		Seats:            5,
		XAccounts:        3,
		MaxAPIKeys:       10,
	},
	TierEnterprise: {
		DailyAPI:         Unlimited,
		StudioQueries:    Unlimited,
		ChartGenerations: Unlimited,
		PostDrafts:       Unlimited,
		MaxDrafts:        Unlimited,
		MaxScheduled:     Unlimited,
		CSVExports:       Unlimited,
		WeeklyPublishes:  Unlimited,
		DelayDays:        0,
		HistMonths:       Unlimited,
		Seats:            Unlimited,
		XAccounts:        Unlimited,
		MaxAPIKeys:       Unlimited,
	},
}

// GetQuota returns the quota table for a tier, defaulting to the free tier
// for unknown values.
func GetQuota(tier Tier) Quota {
	if q, ok := tierQuotas[tier]; ok {
		return q
	}
	return tierQuotas[TierFree]
}

// =============================================================================
// Per-model sub-quotas
// =============================================================================

// Model identifies an analytics model available in the studio.
type Model struct {
	ID      string
	MinTier Tier // lowest tier that may use the model
}

// Models lists the studio models and their minimum tiers.
var Models = []Model{
	{ID: "insight-lite", MinTier: TierFree},
	{ID: "insight-plus", MinTier: TierStarter},
	{ID: "forecast-xl", MinTier: TierPro},
}

// ModelByID looks up a model by its identifier.
func ModelByID(id string) (Model, bool) {
	for _, m := range Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ModelQuota defines the per-model sub-limits within a tier's global quota.
// A sub-limit must never exceed the tier's corresponding global limit.
type ModelQuota struct {
	StudioQueries    float64
	ChartGenerations float64
}

// perModelQuotas maps (tier, model ID) to sub-limits. Entries only exist for
// tiers at or above the model's minimum tier; everything else resolves to 0.
var perModelQuotas = map[Tier]map[string]ModelQuota{
	TierFree: {
		"insight-lite": {StudioQueries: 5, ChartGenerations: 3},
	},
	TierStarter: {
		"insight-lite": {StudioQueries: 25, ChartGenerations: 10},
		"insight-plus": {StudioQueries: 15, ChartGenerations: 8},
	},
	TierPro: {
		"insight-lite": {StudioQueries: 100, ChartGenerations: 50},
		"insight-plus": {StudioQueries: 60, ChartGenerations: 30},
		"forecast-xl":  {StudioQueries: 40, ChartGenerations: 20},
	},
	TierEnterprise: {
		"insight-lite": {StudioQueries: Unlimited, ChartGenerations: Unlimited},
		"insight-plus": {StudioQueries: Unlimited, ChartGenerations: Unlimited},
		"forecast-xl":  {StudioQueries: Unlimited, ChartGenerations: Unlimited},
	},
}

// GetModelQuota returns the sub-limits for a model on a tier.
//
// A model below its minimum tier, or an unknown model, resolves to zero
// limits, which the limiter engine treats as "feature disabled".
func GetModelQuota(tier Tier, modelID string) ModelQuota {
	model, ok := ModelByID(modelID)
	if !ok || !tier.Meets(model.MinTier) {
		return ModelQuota{}
	}
	if byModel, ok := perModelQuotas[tier]; ok {
		if q, ok := byModel[modelID]; ok {
			return q
		}
	}
	return ModelQuota{}
}

// AccessibleModels returns the models available to a tier, in declaration order.
func AccessibleModels(tier Tier) []Model {
	var out []Model
	for _, m := range Models {
		if tier.Meets(m.MinTier) {
			out = append(out, m)
		}
	}
	return out
}
