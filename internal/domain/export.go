package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportArtifact records a generated CSV export and where it was stored.
type ExportArtifact struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Period     string // "YYYYMM" month the export was counted against
	StorageKey string
	SizeBytes  int64
	RowCount   int
	CreatedAt  time.Time
}
