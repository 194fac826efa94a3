package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/ratelimit"
)

// Responder drafts replies to unanswered mentions on the connected account.
type Responder interface {
	// PendingMentions returns the mentions awaiting a reply, oldest first.
	PendingMentions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// DraftReply generates and stores a reply draft for the mention.
	DraftReply(ctx context.Context, userID, mentionID uuid.UUID) error
}

// AutoReplyHandler drives the auto-reply pipeline: each run drafts replies
// to pending mentions until the queue or the tier's daily draft quota runs
// out, whichever first.
type AutoReplyHandler struct {
	tiers     TierResolver
	limits    *ratelimit.Service
	responder Responder
	logger    *slog.Logger
}

// NewAutoReplyHandler creates the auto-reply pipeline handler.
func NewAutoReplyHandler(tiers TierResolver, limits *ratelimit.Service, responder Responder, logger *slog.Logger) *AutoReplyHandler {
	return &AutoReplyHandler{
		tiers:     tiers,
		limits:    limits,
		responder: responder,
		logger:    logger,
	}
}

// Kind returns the automation kind this handler processes.
func (h *AutoReplyHandler) Kind() domain.AutomationKind {
	return domain.AutomationAutoReply
}

// Run drafts replies for pending mentions within the daily draft quota.
func (h *AutoReplyHandler) Run(ctx context.Context, cfg domain.AutomationConfig, now time.Time) error {
	const op = "jobs.auto_reply"

	mentions, err := h.responder.PendingMentions(ctx, cfg.UserID)
	if err != nil {
		return domain.Internal(err, op, "failed to list pending mentions")
	}
	if len(mentions) == 0 {
		return nil
	}

	tier, err := h.tiers.TierFor(ctx, cfg.UserID)
	if err != nil {
		return domain.Internal(err, op, "failed to resolve tier")
	}

	drafted := 0
	for _, mentionID := range mentions {
		res := h.limits.CheckPostDraft(ctx, cfg.UserID.String(), tier, now)
		if !res.Success {
			if drafted == 0 {
				return domain.QuotaExceeded(op, "post draft", res.Limit)
			}
			// Partial progress still counts as a completed run.
			h.logger.Info("draft quota exhausted mid-run",
				"user_id", cfg.UserID,
				"drafted", drafted,
				"pending", len(mentions)-drafted,
			)
			return nil
		}

		if err := h.responder.DraftReply(ctx, cfg.UserID, mentionID); err != nil {
			return domain.Internal(err, op, "failed to draft reply")
		}
		drafted++
	}

	h.logger.Info("drafted replies",
		"user_id", cfg.UserID,
		"count", drafted,
	)
	return nil
}
