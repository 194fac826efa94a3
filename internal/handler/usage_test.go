package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zz676/juice-index-sub001/internal/counter"
	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
	"github.com/zz676/juice-index-sub001/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// staticTiers resolves every account to one tier.
type staticTiers struct {
	tier domain.Tier
}

func (s *staticTiers) TierFor(ctx context.Context, userID uuid.UUID) (domain.Tier, error) {
	return s.tier, nil
}

func newUsageServer(tier domain.Tier) *http.ServeMux {
	store := counter.NewMemoryStore()
	limits := ratelimit.NewService(ratelimit.New(store, testLogger()))
	usage := service.NewUsageService(store, testLogger())

	h := NewUsageHandler(usage, &staticTiers{tier: tier}, limits, testLogger())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func TestGetUsageEndpoint(t *testing.T) {
	mux := newUsageServer(domain.TierStarter)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage/"+userID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "999", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	var body struct {
		Tier     string `json:"tier"`
		Features []struct {
			Feature string  `json:"feature"`
			Used    float64 `json:"used"`
		} `json:"features"`
		Models []struct {
			ModelID string `json:"model_id"`
		} `json:"models"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "STARTER", body.Tier)
	assert.Len(t, body.Features, 6)
	assert.Len(t, body.Models, 2)

	// The snapshot reflects the API call that fetched it.
	for _, f := range body.Features {
		if f.Feature == "daily_api" {
			assert.Equal(t, float64(1), f.Used)
		}
	}
}

func TestGetUsageEndpointInvalidID(t *testing.T) {
	mux := newUsageServer(domain.TierFree)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUsageEndpointRateLimited(t *testing.T) {
	mux := newUsageServer(domain.TierFree)
	userID := uuid.New()

	// The free tier allows 100 API calls per day.
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage/"+userID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage/"+userID.String(), nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "daily API limit of 100")
}

func TestGetUsageEndpointUnlimitedTier(t *testing.T) {
	mux := newUsageServer(domain.TierEnterprise)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/usage/"+userID.String(), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unlimited", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "unlimited", rec.Header().Get("X-RateLimit-Remaining"))
}
