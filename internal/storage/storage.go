// Package storage provides object storage for generated CSV export artifacts.
//
// Two implementations back the Storage interface:
// - LocalStorage: filesystem storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Storage defines the interface for object storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	// Returns ErrKeyExists if the key exists and Overwrite is disabled.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key.
	// The caller must close the returned reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key.
	// Idempotent: no error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object at the specified key.
	// For private objects this is a presigned URL valid for the given duration.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it is detected from the key's extension.
	ContentType string

	// MaxSize is the maximum allowed size in bytes. 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public marks the object publicly accessible. For R2 this sets the
	// ACL to public-read; local storage ignores it.
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string // empty for local storage
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the public URL for the bucket when served from a custom
	// domain. If empty, presigned URLs are used for all access.
	PublicURL string

	// Region is required by the AWS SDK; R2 accepts any value.
	// Default: "auto"
	Region string
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// ExportKey generates a storage key for a usage export.
// Format: exports/{userID}/{period}/{uuid}.csv
//
// Example: "exports/123e4567-e89b-12d3-a456-426614174000/202608/987fcdeb-51a2-43f1-b9c4-12345678abcd.csv"
func ExportKey(userID uuid.UUID, period string) string {
	return fmt.Sprintf("exports/%s/%s/%s.csv", userID, period, uuid.New())
}
