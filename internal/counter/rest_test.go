package counter

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestNewRESTStore_MissingConfig(t *testing.T) {
	_, err := NewRESTStore(RESTConfig{Token: "tok"}, testLogger())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFIG, domain.ErrorCode(err))

	_, err = NewRESTStore(RESTConfig{BaseURL: "https://counters.example.com"}, testLogger())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFIG, domain.ErrorCode(err))
}

func TestRESTStore_Incr(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"result": 3}`))
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{BaseURL: srv.URL, Token: "secret"}, testLogger())
	require.NoError(t, err)

	n, err := store.Incr(context.Background(), "studio:query:u1:20260830")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "/incr/studio:query:u1:20260830", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestRESTStore_GetAbsentKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": null}`))
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{BaseURL: srv.URL, Token: "secret"}, testLogger())
	require.NoError(t, err)

	n, ok, err := store.Get(context.Background(), "csv:u1:202608")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestRESTStore_GetPresentKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": 17}`))
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{BaseURL: srv.URL, Token: "secret"}, testLogger())
	require.NoError(t, err)

	n, ok, err := store.Get(context.Background(), "csv:u1:202608")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(17), n)
}

func TestRESTStore_ExpireRoundsUpAndClamps(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"result": 1}`))
	}))
	defer srv.Close()

	store, err := NewRESTStore(RESTConfig{BaseURL: srv.URL, Token: "secret"}, testLogger())
	require.NoError(t, err)

	require.NoError(t, store.Expire(context.Background(), "k", 90*time.Second))
	require.NoError(t, store.Expire(context.Background(), "k", 1500*time.Millisecond))
	// Zero or negative TTLs are clamped to one second to avoid instant eviction.
	require.NoError(t, store.Expire(context.Background(), "k", 0))

	assert.Equal(t, []string{"/expire/k/90", "/expire/k/2", "/expire/k/1"}, paths)
}

func TestRESTStore_ErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad token"}`},
		{name: "malformed body", status: http.StatusOK, body: `not json`},
		{name: "error envelope", status: http.StatusOK, body: `{"error":"wrong type"}`},
		{name: "malformed result", status: http.StatusOK, body: `{"result": "abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			store, err := NewRESTStore(RESTConfig{BaseURL: srv.URL, Token: "secret"}, testLogger())
			require.NoError(t, err)

			_, err = store.Incr(context.Background(), "k")
			assert.Error(t, err)
		})
	}
}
