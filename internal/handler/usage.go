package handler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
	"github.com/zz676/juice-index-sub001/internal/service"
)

// TierResolver reports an account's current subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID uuid.UUID) (domain.Tier, error)
}

// UsageHandler serves usage snapshots, gated by the daily API quota.
type UsageHandler struct {
	usage  service.UsageService
	tiers  TierResolver
	limits *ratelimit.Service
	logger *slog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usage service.UsageService, tiers TierResolver, limits *ratelimit.Service, logger *slog.Logger) *UsageHandler {
	return &UsageHandler{
		usage:  usage,
		tiers:  tiers,
		limits: limits,
		logger: logger,
	}
}

// RegisterRoutes attaches the handler's routes to the mux.
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/usage/{user_id}", h.GetUsage)
}

type featureUsageResponse struct {
	Feature   string  `json:"feature"`
	Used      float64 `json:"used"`
	Limit     any     `json:"limit"`
	Remaining any     `json:"remaining"`
	Reset     int64   `json:"reset,omitempty"`
	Unlimited bool    `json:"unlimited"`
}

type modelUsageResponse struct {
	ModelID string               `json:"model_id"`
	Queries featureUsageResponse `json:"queries"`
	Charts  featureUsageResponse `json:"charts"`
}

type usageResponse struct {
	Tier     string                 `json:"tier"`
	Features []featureUsageResponse `json:"features"`
	Models   []modelUsageResponse   `json:"models"`
}

// GetUsage returns the account's live usage snapshot. The request itself
// consumes one unit of the tier's daily API quota.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, domain.Invalid("handler.get_usage", "invalid user ID"), h.logger)
		return
	}

	tier, err := h.tiers.TierFor(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	now := time.Now().UTC()
	res := h.limits.CheckDailyAPI(r.Context(), userID.String(), tier, now)
	setRateLimitHeaders(w, res)
	if !res.Success {
		writeError(w, domain.QuotaExceeded("handler.get_usage", "daily API", res.Limit), h.logger)
		return
	}

	summary, err := h.usage.GetUsage(r.Context(), userID.String(), tier, now)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toUsageResponse(summary), h.logger)
}

// setRateLimitHeaders exposes the request's quota position the way API
// clients expect.
func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", formatQuota(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", formatQuota(res.Remaining))
	if res.Reset > 0 {
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", res.Reset))
	}
}

func formatQuota(f float64) string {
	if math.IsInf(f, 1) {
		return "unlimited"
	}
	return fmt.Sprintf("%d", int64(f))
}

func toUsageResponse(s *service.UsageSummary) usageResponse {
	out := usageResponse{Tier: s.Tier.String()}
	for _, f := range s.Features {
		out.Features = append(out.Features, toFeatureResponse(f))
	}
	for _, m := range s.Models {
		out.Models = append(out.Models, modelUsageResponse{
			ModelID: m.ModelID,
			Queries: toFeatureResponse(m.Queries),
			Charts:  toFeatureResponse(m.Charts),
		})
	}
	return out
}

func toFeatureResponse(f service.FeatureUsage) featureUsageResponse {
	return featureUsageResponse{
		Feature:   f.Feature,
		Used:      f.Used,
		Limit:     limitValue(f.Limit),
		Remaining: limitValue(f.Remaining),
		Reset:     f.Reset,
		Unlimited: f.Unlimited,
	}
}
