package worker

import (
	"context"
	"time"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

// Handler executes one automation pipeline for one account's config.
// Implementations live in the jobs package, one per automation kind.
type Handler interface {
	// Kind returns the automation kind this handler processes. It must match
	// the config's kind column.
	Kind() domain.AutomationKind

	// Run executes the pipeline for the given config. A run that returns a
	// rate limit error is recorded as limited, not failed: exhausting a
	// publish or draft quota is an expected outcome, and the config still
	// advances to its next poll slot.
	Run(ctx context.Context, cfg domain.AutomationConfig, now time.Time) error
}
