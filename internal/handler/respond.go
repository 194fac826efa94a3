// Package handler exposes the JSON API surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps a domain error code to an HTTP status and renders the
// user-visible message. Internal details never reach the client.
func writeError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	switch domain.ErrorCode(err) {
	case domain.EINVALID:
		status = http.StatusBadRequest
	case domain.ENOTFOUND:
		status = http.StatusNotFound
	case domain.ECONFLICT:
		status = http.StatusConflict
	case domain.ERATELIMIT:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}

	writeJSON(w, status, map[string]string{"error": domain.ErrorMessage(err)}, logger)
}

// limitValue renders a quota value for the wire: a number, or the string
// "unlimited" since JSON has no infinity.
func limitValue(f float64) any {
	if math.IsInf(f, 1) {
		return "unlimited"
	}
	return f
}
