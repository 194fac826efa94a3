package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quotaFields enumerates every named limit with an accessor, so the
// monotonicity invariant is enforced by tests rather than convention.
var quotaFields = []struct {
	name    string
	get     func(Quota) float64
	inverse bool // true for limits that shrink as the tier rank grows
}{
	{name: "DailyAPI", get: func(q Quota) float64 { return q.DailyAPI }},
	{name: "StudioQueries", get: func(q Quota) float64 { return q.StudioQueries }},
	{name: "ChartGenerations", get: func(q Quota) float64 { return q.ChartGenerations }},
	{name: "PostDrafts", get: func(q Quota) float64 { return q.PostDrafts }},
	{name: "MaxDrafts", get: func(q Quota) float64 { return q.MaxDrafts }},
	{name: "MaxScheduled", get: func(q Quota) float64 { return q.MaxScheduled }},
	{name: "CSVExports", get: func(q Quota) float64 { return q.CSVExports }},
	{name: "WeeklyPublishes", get: func(q Quota) float64 { return q.WeeklyPublishes }},
	{name: "DelayDays", get: func(q Quota) float64 { return q.DelayDays }, inverse: true},
	{name: "HistMonths", get: func(q Quota) float64 { return q.HistMonths }},
	{name: "Seats", get: func(q Quota) float64 { return q.Seats }},
	{name: "XAccounts", get: func(q Quota) float64 { return q.XAccounts }},
	{name: "MaxAPIKeys", get: func(q Quota) float64 { return q.MaxAPIKeys }},
}

func TestQuotaMonotonicAcrossTiers(t *testing.T) {
	for _, field := range quotaFields {
		t.Run(field.name, func(t *testing.T) {
			for i := 1; i < len(AllTiers); i++ {
				lower := field.get(GetQuota(AllTiers[i-1]))
				higher := field.get(GetQuota(AllTiers[i]))
				if field.inverse {
					assert.LessOrEqual(t, higher, lower,
						"%s must not grow from %s to %s", field.name, AllTiers[i-1], AllTiers[i])
				} else {
					assert.GreaterOrEqual(t, higher, lower,
						"%s must not shrink from %s to %s", field.name, AllTiers[i-1], AllTiers[i])
				}
			}
		})
	}
}

func TestGetQuotaUnknownTierDefaultsToFree(t *testing.T) {
	assert.Equal(t, GetQuota(TierFree), GetQuota(Tier(99)))
}

func TestGetQuotaNonNegative(t *testing.T) {
	for _, tier := range AllTiers {
		q := GetQuota(tier)
		for _, field := range quotaFields {
			assert.GreaterOrEqual(t, field.get(q), 0.0, "%s/%s", tier, field.name)
		}
	}
}

func TestModelQuotaNeverExceedsGlobal(t *testing.T) {
	for _, tier := range AllTiers {
		global := GetQuota(tier)
		for _, model := range Models {
			mq := GetModelQuota(tier, model.ID)
			assert.LessOrEqual(t, mq.StudioQueries, global.StudioQueries,
				"%s/%s StudioQueries", tier, model.ID)
			assert.LessOrEqual(t, mq.ChartGenerations, global.ChartGenerations,
				"%s/%s ChartGenerations", tier, model.ID)
		}
	}
}

func TestModelQuotaBelowMinTierIsZero(t *testing.T) {
	for _, tier := range AllTiers {
		for _, model := range Models {
			if tier.Meets(model.MinTier) {
				continue
			}
			mq := GetModelQuota(tier, model.ID)
			assert.Zero(t, mq.StudioQueries, "%s/%s", tier, model.ID)
			assert.Zero(t, mq.ChartGenerations, "%s/%s", tier, model.ID)
		}
	}
}

func TestGetModelQuotaUnknownModel(t *testing.T) {
	mq := GetModelQuota(TierEnterprise, "no-such-model")
	assert.Zero(t, mq.StudioQueries)
	assert.Zero(t, mq.ChartGenerations)
}

func TestAccessibleModels(t *testing.T) {
	free := AccessibleModels(TierFree)
	require.Len(t, free, 1)
	assert.Equal(t, "insight-lite", free[0].ID)

	pro := AccessibleModels(TierPro)
	assert.Len(t, pro, len(Models))
}
