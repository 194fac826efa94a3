package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/service"
)

// maxExportRequestBytes caps the request body for export generation.
const maxExportRequestBytes = 16 << 20

// ExportHandler serves CSV export generation and listing.
type ExportHandler struct {
	exports service.ExportService
	tiers   TierResolver
	logger  *slog.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports service.ExportService, tiers TierResolver, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		tiers:   tiers,
		logger:  logger,
	}
}

// RegisterRoutes attaches the handler's routes to the mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/exports/{user_id}", h.Generate)
	mux.HandleFunc("GET /api/exports/{user_id}", h.List)
	mux.HandleFunc("GET /api/exports/{user_id}/{id}", h.Download)
	mux.HandleFunc("GET /api/exports/{user_id}/{id}/url", h.Link)
	mux.HandleFunc("DELETE /api/exports/{user_id}/{id}", h.Delete)
}

type generateExportRequest struct {
	Header  []string   `json:"header"`
	Records [][]string `json:"records"`
}

type exportResponse struct {
	ID         uuid.UUID `json:"id"`
	Period     string    `json:"period"`
	StorageKey string    `json:"storage_key"`
	SizeBytes  int64     `json:"size_bytes"`
	RowCount   int       `json:"row_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Generate renders the posted rows as a CSV artifact, subject to the
// account's monthly export quota.
func (h *ExportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	const op = "handler.generate_export"

	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, domain.Invalid(op, "invalid user ID"), h.logger)
		return
	}

	var req generateExportRequest
	body := http.MaxBytesReader(w, r.Body, maxExportRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, domain.Invalid(op, "malformed request body"), h.logger)
		return
	}
	if len(req.Records) == 0 {
		writeError(w, domain.Invalid(op, "no records to export"), h.logger)
		return
	}

	tier, err := h.tiers.TierFor(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	artifact, err := h.exports.Generate(r.Context(), userID, tier, req.Header, req.Records, time.Now().UTC())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, toExportResponse(artifact), h.logger)
}

// List returns the account's export artifacts, newest first.
func (h *ExportHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.list_exports"

	userID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		writeError(w, domain.Invalid(op, "invalid user ID"), h.logger)
		return
	}

	artifacts, err := h.exports.List(r.Context(), userID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	out := make([]exportResponse, 0, len(artifacts))
	for i := range artifacts {
		out = append(out, toExportResponse(&artifacts[i]))
	}
	writeJSON(w, http.StatusOK, out, h.logger)
}

// Download streams the artifact's CSV body.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "handler.download_export"

	userID, exportID, err := exportPathIDs(r)
	if err != nil {
		writeError(w, domain.Invalid(op, err.Error()), h.logger)
		return
	}

	body, artifact, err := h.exports.Download(r.Context(), userID, exportID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename(artifact)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("failed to stream export", "error", err, "export_id", exportID)
	}
}

// Link returns a time-limited download URL for the artifact.
func (h *ExportHandler) Link(w http.ResponseWriter, r *http.Request) {
	const op = "handler.link_export"

	userID, exportID, err := exportPathIDs(r)
	if err != nil {
		writeError(w, domain.Invalid(op, err.Error()), h.logger)
		return
	}

	url, err := h.exports.Link(r.Context(), userID, exportID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url}, h.logger)
}

// Delete removes the artifact and its stored file.
func (h *ExportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handler.delete_export"

	userID, exportID, err := exportPathIDs(r)
	if err != nil {
		writeError(w, domain.Invalid(op, err.Error()), h.logger)
		return
	}

	if err := h.exports.Delete(r.Context(), userID, exportID); err != nil {
		writeError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func exportPathIDs(r *http.Request) (userID, exportID uuid.UUID, err error) {
	userID, err = uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid user ID")
	}
	exportID, err = uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid export ID")
	}
	return userID, exportID, nil
}

func exportFilename(a *domain.ExportArtifact) string {
	return fmt.Sprintf("usage-%s.csv", a.Period)
}

func toExportResponse(a *domain.ExportArtifact) exportResponse {
	return exportResponse{
		ID:         a.ID,
		Period:     a.Period,
		StorageKey: a.StorageKey,
		SizeBytes:  a.SizeBytes,
		RowCount:   a.RowCount,
		CreatedAt:  a.CreatedAt,
	}
}
