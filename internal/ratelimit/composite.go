package ratelimit

import (
	"context"
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// FailedOn identifies which stage of a composite check rejected the request.
type FailedOn string

const (
	FailedOnNone   FailedOn = ""
	FailedOnGlobal FailedOn = "global"
	FailedOnModel  FailedOn = "model"
)

// CompositeResult is the outcome of a global-plus-model limit check.
type CompositeResult struct {
	Global   Result
	Model    Result
	Success  bool
	FailedOn FailedOn
}

// enforce chains the tier-wide limiter with a per-model limiter.
//
// The global check runs first. If it fails, the per-model counter is never
// incremented: a globally rejected request must not consume model quota, or
// usage accounting drifts. The model result then mirrors the global result.
func (s *Service) enforce(ctx context.Context, prefix, userID string, globalLimit float64, modelID string, modelLimit float64, w Window, now time.Time) CompositeResult {
	global := s.limiter.CheckAndIncrement(ctx, prefix, userID, globalLimit, w, now)
	if !global.Success {
		return CompositeResult{
			Global:   global,
			Model:    global,
			Success:  false,
			FailedOn: FailedOnGlobal,
		}
	}

	model := s.limiter.CheckAndIncrement(ctx, prefix+":model:"+modelID, userID, modelLimit, w, now)
	failedOn := FailedOnNone
	if !model.Success {
		failedOn = FailedOnModel
	}

	return CompositeResult{
		Global:   global,
		Model:    model,
		Success:  model.Success,
		FailedOn: failedOn,
	}
}

// EnforceStudioQuery applies the tier-wide studio query cap and the
// per-model sub-cap. A model below its minimum tier resolves to a zero
// sub-limit and is denied at the model stage without a store call.
func (s *Service) EnforceStudioQuery(ctx context.Context, userID string, tier domain.Tier, modelID string, now time.Time) CompositeResult {
	q := domain.GetQuota(tier)
	mq := domain.GetModelQuota(tier, modelID)
	return s.enforce(ctx, PrefixStudioQuery, userID, q.StudioQueries, modelID, mq.StudioQueries, DailyWindow{}, now)
}

// EnforceChartGeneration applies the tier-wide chart cap and the per-model
// sub-cap.
func (s *Service) EnforceChartGeneration(ctx context.Context, userID string, tier domain.Tier, modelID string, now time.Time) CompositeResult {
	q := domain.GetQuota(tier)
	mq := domain.GetModelQuota(tier, modelID)
	return s.enforce(ctx, PrefixChartGen, userID, q.ChartGenerations, modelID, mq.ChartGenerations, DailyWindow{}, now)
}
