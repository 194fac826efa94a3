// Package service contains the business logic layer.
//
// This file implements the export service: quota-gated generation of CSV
// usage exports, uploaded to object storage and recorded per account.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/metrics"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
	"github.com/zz676/juice-index-sub001/internal/storage"
)

// maxExportBytes caps a single CSV artifact at 32 MiB.
const maxExportBytes = 32 << 20

// downloadLinkTTL is how long a presigned download link stays valid.
const downloadLinkTTL = 15 * time.Minute

// ExportService defines operations for generating CSV export artifacts.
type ExportService interface {
	// Generate checks the account's monthly export quota, renders the rows as
	// CSV, uploads the artifact, and records it.
	// Returns domain.ERATELIMIT when the quota is exhausted; the free tier's
	// limit is zero, so free accounts are denied before any upload.
	Generate(ctx context.Context, userID uuid.UUID, tier domain.Tier, header []string, records [][]string, now time.Time) (*domain.ExportArtifact, error)

	// List returns the account's export artifacts, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]domain.ExportArtifact, error)

	// Download streams a stored artifact's CSV body. The caller must close
	// the returned reader.
	// Returns domain.ENOTFOUND if the artifact or its object is gone.
	Download(ctx context.Context, userID, id uuid.UUID) (io.ReadCloser, *domain.ExportArtifact, error)

	// Link returns a time-limited URL for fetching the artifact directly
	// from object storage.
	Link(ctx context.Context, userID, id uuid.UUID) (string, error)

	// Delete removes the artifact record and its stored object.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// ExportRecorder persists export artifact rows.
type ExportRecorder interface {
	CreateExportArtifact(ctx context.Context, a *domain.ExportArtifact) error
	GetExportArtifact(ctx context.Context, userID, id uuid.UUID) (*domain.ExportArtifact, error)
	DeleteExportArtifact(ctx context.Context, userID, id uuid.UUID) error
	ListExportArtifactsByUser(ctx context.Context, userID uuid.UUID) ([]domain.ExportArtifact, error)
}

type exportService struct {
	recorder ExportRecorder
	limits   *ratelimit.Service
	store    storage.Storage
	logger   *slog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(recorder ExportRecorder, limits *ratelimit.Service, store storage.Storage, logger *slog.Logger) ExportService {
	return &exportService{
		recorder: recorder,
		limits:   limits,
		store:    store,
		logger:   logger,
	}
}

// Generate produces one CSV export artifact for the account.
func (s *exportService) Generate(ctx context.Context, userID uuid.UUID, tier domain.Tier, header []string, records [][]string, now time.Time) (*domain.ExportArtifact, error) {
	const op = "export.generate"

	res := s.limits.CheckCSVExport(ctx, userID.String(), tier, now)
	if !res.Success {
		s.logger.Info("csv export denied",
			"user_id", userID,
			"tier", tier,
			"limit", res.Limit,
		)
		return nil, domain.QuotaExceeded(op, "CSV export", res.Limit)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(header) > 0 {
		if err := w.Write(header); err != nil {
			return nil, domain.Internal(err, op, "failed to encode CSV header")
		}
	}
	if err := w.WriteAll(records); err != nil {
		return nil, domain.Internal(err, op, "failed to encode CSV rows")
	}

	period := now.UTC().Format("200601")
	key := storage.ExportKey(userID, period)
	size := int64(buf.Len())

	err := s.store.Put(ctx, key, &buf, storage.PutOptions{
		ContentType: storage.ContentTypeCSV,
		MaxSize:     maxExportBytes,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to upload export")
	}

	artifact := &domain.ExportArtifact{
		ID:         uuid.New(),
		UserID:     userID,
		Period:     period,
		StorageKey: key,
		SizeBytes:  size,
		RowCount:   len(records),
		CreatedAt:  now,
	}
	if err := s.recorder.CreateExportArtifact(ctx, artifact); err != nil {
		return nil, domain.Internal(err, op, "failed to record export")
	}

	metrics.ExportsGenerated.Inc()
	s.logger.Info("generated csv export",
		"user_id", userID,
		"key", key,
		"rows", len(records),
		"bytes", size,
	)
	return artifact, nil
}

// List returns the account's export artifacts, newest first.
func (s *exportService) List(ctx context.Context, userID uuid.UUID) ([]domain.ExportArtifact, error) {
	const op = "export.list"

	artifacts, err := s.recorder.ListExportArtifactsByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list exports")
	}
	return artifacts, nil
}

// Download streams a stored artifact's CSV body.
func (s *exportService) Download(ctx context.Context, userID, id uuid.UUID) (io.ReadCloser, *domain.ExportArtifact, error) {
	const op = "export.download"

	artifact, err := s.getArtifact(ctx, op, userID, id)
	if err != nil {
		return nil, nil, err
	}

	body, _, err := s.store.Get(ctx, artifact.StorageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			// The record outlived its object, e.g. a bucket lifecycle rule.
			return nil, nil, domain.NotFound(op, "export file", id.String())
		}
		return nil, nil, domain.Internal(err, op, "failed to fetch export")
	}
	return body, artifact, nil
}

// Link returns a time-limited URL for fetching the artifact from storage.
func (s *exportService) Link(ctx context.Context, userID, id uuid.UUID) (string, error) {
	const op = "export.link"

	artifact, err := s.getArtifact(ctx, op, userID, id)
	if err != nil {
		return "", err
	}

	// Presigning never touches the object, so check it is still there before
	// handing out a URL that would 404.
	exists, err := s.store.Exists(ctx, artifact.StorageKey)
	if err != nil {
		return "", domain.Internal(err, op, "failed to check export file")
	}
	if !exists {
		return "", domain.NotFound(op, "export file", id.String())
	}

	url, err := s.store.URL(ctx, artifact.StorageKey, downloadLinkTTL)
	if err != nil {
		return "", domain.Internal(err, op, "failed to sign export URL")
	}
	return url, nil
}

// Delete removes the artifact record and its stored object.
func (s *exportService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const op = "export.delete"

	artifact, err := s.getArtifact(ctx, op, userID, id)
	if err != nil {
		return err
	}

	// Object first: a leftover record is visible and retryable, a leaked
	// object is not.
	if err := s.store.Delete(ctx, artifact.StorageKey); err != nil {
		return domain.Internal(err, op, "failed to delete export file")
	}
	if err := s.recorder.DeleteExportArtifact(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "export", id.String())
		}
		return domain.Internal(err, op, "failed to delete export record")
	}

	s.logger.Info("deleted csv export",
		"user_id", userID,
		"export_id", id,
		"key", artifact.StorageKey,
	)
	return nil
}

func (s *exportService) getArtifact(ctx context.Context, op string, userID, id uuid.UUID) (*domain.ExportArtifact, error) {
	artifact, err := s.recorder.GetExportArtifact(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "export", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load export")
	}
	return artifact, nil
}
