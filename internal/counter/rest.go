package counter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// RESTConfig holds the settings for the HTTP counter store.
type RESTConfig struct {
	// BaseURL is the root of the counter service, e.g.
	// "https://counters.example.com". Required.
	BaseURL string

	// Token is the bearer token sent on every request. Required.
	Token string

	// Timeout bounds each request. Defaults to 5 seconds.
	Timeout time.Duration
}

// RESTStore talks to the counter service over HTTP.
//
// The protocol is three bearer-authenticated endpoints:
//
//	POST {base}/incr/{key}          -> {"result": <new value>}
//	GET  {base}/get/{key}           -> {"result": <value>} or {"result": null}
//	POST {base}/expire/{key}/{sec}  -> {"result": 1}
type RESTStore struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewRESTStore creates a RESTStore.
//
// A missing base URL or token is a hard configuration error raised here,
// before any network call, never a silent fallback. Unlimited and
// zero-limit checks short-circuit inside the limiter engine, so the store is
// only constructed in contexts that will genuinely hit the network.
func NewRESTStore(cfg RESTConfig, logger *slog.Logger) (*RESTStore, error) {
	const op = "counter.new_rest_store"

	if cfg.BaseURL == "" {
		return nil, domain.Config(op, "counter store base URL is not configured")
	}
	if cfg.Token == "" {
		return nil, domain.Config(op, "counter store token is not configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &RESTStore{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// restResponse is the envelope every endpoint returns.
type restResponse struct {
	Result *json.Number `json:"result"`
	Error  string       `json:"error"`
}

// Incr atomically increments the counter at key.
func (s *RESTStore) Incr(ctx context.Context, key string) (int64, error) {
	res, err := s.do(ctx, http.MethodPost, "incr/"+url.PathEscape(key))
	if err != nil {
		return 0, err
	}
	if res.Result == nil {
		return 0, fmt.Errorf("incr %q: empty result", key)
	}
	n, err := res.Result.Int64()
	if err != nil {
		return 0, fmt.Errorf("incr %q: malformed result %q: %w", key, res.Result.String(), err)
	}
	return n, nil
}

// Get returns the current counter value, or ok=false for an absent key.
func (s *RESTStore) Get(ctx context.Context, key string) (int64, bool, error) {
	res, err := s.do(ctx, http.MethodGet, "get/"+url.PathEscape(key))
	if err != nil {
		return 0, false, err
	}
	if res.Result == nil {
		return 0, false, nil
	}
	n, err := res.Result.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("get %q: malformed result %q: %w", key, res.Result.String(), err)
	}
	return n, true, nil
}

// Expire sets a TTL on the key, rounded up to whole seconds.
func (s *RESTStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		seconds++
	}
	if seconds < 1 {
		seconds = 1
	}
	_, err := s.do(ctx, http.MethodPost, fmt.Sprintf("expire/%s/%d", url.PathEscape(key), seconds))
	return err
}

// do issues one request and decodes the response envelope.
func (s *RESTStore) do(ctx context.Context, method, path string) (*restResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("counter store request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("counter store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out restResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("counter store error: %s", out.Error)
	}
	return &out, nil
}
