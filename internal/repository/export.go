package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// CreateExportArtifact records a generated CSV export.
func (q *Queries) CreateExportArtifact(ctx context.Context, a *domain.ExportArtifact) error {
	const query = `
		INSERT INTO export_artifacts (id, user_id, period, storage_key, size_bytes, row_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`

	_, err := q.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Period, a.StorageKey, a.SizeBytes, a.RowCount)
	if err != nil {
		return fmt.Errorf("insert export artifact: %w", err)
	}
	return nil
}

// GetExportArtifact loads one of a user's exports by ID.
// Returns sql.ErrNoRows if the artifact doesn't exist or belongs to someone
// else; ownership is part of the lookup, not a separate check.
func (q *Queries) GetExportArtifact(ctx context.Context, userID, id uuid.UUID) (*domain.ExportArtifact, error) {
	const query = `
		SELECT id, user_id, period, storage_key, size_bytes, row_count, created_at
		FROM export_artifacts
		WHERE id = $1 AND user_id = $2`

	var a domain.ExportArtifact
	err := q.db.QueryRowContext(ctx, query, id, userID).Scan(&a.ID, &a.UserID,
		&a.Period, &a.StorageKey, &a.SizeBytes, &a.RowCount, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteExportArtifact removes a user's export record.
// Returns sql.ErrNoRows if nothing was deleted.
func (q *Queries) DeleteExportArtifact(ctx context.Context, userID, id uuid.UUID) error {
	const query = `DELETE FROM export_artifacts WHERE id = $1 AND user_id = $2`

	res, err := q.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete export artifact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListExportArtifactsByUser returns a user's exports, newest first.
func (q *Queries) ListExportArtifactsByUser(ctx context.Context, userID uuid.UUID) ([]domain.ExportArtifact, error) {
	const query = `
		SELECT id, user_id, period, storage_key, size_bytes, row_count, created_at
		FROM export_artifacts
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list export artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []domain.ExportArtifact
	for rows.Next() {
		var a domain.ExportArtifact
		if err := rows.Scan(&a.ID, &a.UserID, &a.Period, &a.StorageKey,
			&a.SizeBytes, &a.RowCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate export artifacts: %w", err)
	}
	return artifacts, nil
}
