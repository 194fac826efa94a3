// Package service contains the business logic layer.
//
// This file implements the social service: the account-tier lookup, post
// queue, and mention queue the automation pipelines run against.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
	"github.com/zz676/juice-index-sub001/internal/repository"
)

// SocialService backs the automation pipelines with persistence. It
// satisfies the jobs package's TierResolver, Publisher, and Responder
// interfaces.
type SocialService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewSocialService creates a new SocialService.
func NewSocialService(queries *repository.Queries, logger *slog.Logger) *SocialService {
	return &SocialService{
		queries: queries,
		logger:  logger,
	}
}

// TierFor returns the account's subscription tier. Unknown accounts and
// unrecognized tier names resolve to the free tier.
func (s *SocialService) TierFor(ctx context.Context, userID uuid.UUID) (domain.Tier, error) {
	const op = "social.tier_for"

	name, err := s.queries.GetAccountTier(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TierFree, nil
		}
		return domain.TierFree, domain.Internal(err, op, "failed to load account tier")
	}
	return domain.ParseTier(name), nil
}

// SetTier stores the account's subscription tier.
func (s *SocialService) SetTier(ctx context.Context, userID uuid.UUID, tier domain.Tier) error {
	const op = "social.set_tier"

	if err := s.queries.UpsertAccountTier(ctx, userID, tier.String()); err != nil {
		return domain.Internal(err, op, "failed to store account tier")
	}
	return nil
}

// NextQueued returns the oldest scheduled post that is ready to go out.
func (s *SocialService) NextQueued(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	const op = "social.next_queued"

	id, err := s.queries.NextQueuedPost(ctx, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, domain.Internal(err, op, "failed to read post queue")
	}
	return id, true, nil
}

// Publish stamps the post as published.
//
// The actual network push to the connected social account happens through the
// account's own channel; this service only manages the queue state.
func (s *SocialService) Publish(ctx context.Context, userID, postID uuid.UUID) error {
	const op = "social.publish"

	if err := s.queries.MarkPostPublished(ctx, postID, time.Now().UTC()); err != nil {
		return domain.Internal(err, op, "failed to mark post published")
	}
	s.logger.Info("post published", "user_id", userID, "post_id", postID)
	return nil
}

// PendingMentions returns the mentions awaiting a reply draft, oldest first.
func (s *SocialService) PendingMentions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const op = "social.pending_mentions"

	ids, err := s.queries.ListPendingMentions(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list pending mentions")
	}
	return ids, nil
}

// DraftReply records a reply draft slot for the mention.
func (s *SocialService) DraftReply(ctx context.Context, userID, mentionID uuid.UUID) error {
	const op = "social.draft_reply"

	if err := s.queries.CreateReplyDraft(ctx, userID, mentionID); err != nil {
		return domain.Internal(err, op, "failed to create reply draft")
	}
	return nil
}
