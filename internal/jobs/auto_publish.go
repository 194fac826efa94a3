// Package jobs implements the automation pipeline handlers run by the worker.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
)

// TierResolver reports an account's current subscription tier.
type TierResolver interface {
	TierFor(ctx context.Context, userID uuid.UUID) (domain.Tier, error)
}

// Publisher exposes the account's scheduled post queue.
type Publisher interface {
	// NextQueued returns the oldest scheduled post that is ready to go out,
	// or ok=false if nothing is queued.
	NextQueued(ctx context.Context, userID uuid.UUID) (postID uuid.UUID, ok bool, err error)

	// Publish pushes the post to the connected social account.
	Publish(ctx context.Context, userID, postID uuid.UUID) error
}

// AutoPublishHandler drives the auto-publish pipeline: each run publishes at
// most one queued post, gated by the tier's weekly publish quota. The quota
// is only consumed when a post is actually waiting.
type AutoPublishHandler struct {
	tiers     TierResolver
	limits    *ratelimit.Service
	publisher Publisher
	logger    *slog.Logger
}

// NewAutoPublishHandler creates the auto-publish pipeline handler.
func NewAutoPublishHandler(tiers TierResolver, limits *ratelimit.Service, publisher Publisher, logger *slog.Logger) *AutoPublishHandler {
	return &AutoPublishHandler{
		tiers:     tiers,
		limits:    limits,
		publisher: publisher,
		logger:    logger,
	}
}

// Kind returns the automation kind this handler processes.
func (h *AutoPublishHandler) Kind() domain.AutomationKind {
	return domain.AutomationAutoPublish
}

// Run publishes the account's next queued post if the weekly quota allows.
func (h *AutoPublishHandler) Run(ctx context.Context, cfg domain.AutomationConfig, now time.Time) error {
	const op = "jobs.auto_publish"

	postID, ok, err := h.publisher.NextQueued(ctx, cfg.UserID)
	if err != nil {
		return domain.Internal(err, op, "failed to read post queue")
	}
	if !ok {
		h.logger.Debug("no posts queued", "user_id", cfg.UserID)
		return nil
	}

	tier, err := h.tiers.TierFor(ctx, cfg.UserID)
	if err != nil {
		return domain.Internal(err, op, "failed to resolve tier")
	}

	res := h.limits.CheckWeeklyPublish(ctx, cfg.UserID.String(), tier, now)
	if !res.Success {
		return domain.QuotaExceeded(op, "weekly publish", res.Limit)
	}

	if err := h.publisher.Publish(ctx, cfg.UserID, postID); err != nil {
		return domain.Internal(err, op, "failed to publish post")
	}

	h.logger.Info("published scheduled post",
		"user_id", cfg.UserID,
		"post_id", postID,
		"remaining", res.Remaining,
	)
	return nil
}
