package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetAccountTier returns the stored tier name for an account.
// Returns sql.ErrNoRows if the account is unknown; callers treat that as the
// free tier.
func (q *Queries) GetAccountTier(ctx context.Context, userID uuid.UUID) (string, error) {
	const query = `SELECT tier FROM accounts WHERE user_id = $1`

	var tier string
	if err := q.db.QueryRowContext(ctx, query, userID).Scan(&tier); err != nil {
		return "", err
	}
	return tier, nil
}

// UpsertAccountTier stores an account's tier name.
func (q *Queries) UpsertAccountTier(ctx context.Context, userID uuid.UUID, tier string) error {
	const query = `
		INSERT INTO accounts (user_id, tier)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET tier = $2, updated_at = now()`

	if _, err := q.db.ExecContext(ctx, query, userID, tier); err != nil {
		return fmt.Errorf("upsert account tier: %w", err)
	}
	return nil
}

// NextQueuedPost returns the oldest unpublished post whose scheduled time has
// passed. Returns sql.ErrNoRows when the queue is empty.
func (q *Queries) NextQueuedPost(ctx context.Context, userID uuid.UUID, now time.Time) (uuid.UUID, error) {
	const query = `
		SELECT id FROM scheduled_posts
		WHERE user_id = $1 AND published_at IS NULL AND scheduled_for <= $2
		ORDER BY scheduled_for
		LIMIT 1`

	var id uuid.UUID
	if err := q.db.QueryRowContext(ctx, query, userID, now).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// MarkPostPublished stamps a queued post as published.
func (q *Queries) MarkPostPublished(ctx context.Context, postID uuid.UUID, at time.Time) error {
	const query = `UPDATE scheduled_posts SET published_at = $2 WHERE id = $1`

	if _, err := q.db.ExecContext(ctx, query, postID, at); err != nil {
		return fmt.Errorf("mark post published: %w", err)
	}
	return nil
}

// ListPendingMentions returns mention IDs with no reply draft yet, oldest
// first.
func (q *Queries) ListPendingMentions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	const query = `
		SELECT m.id FROM mentions m
		LEFT JOIN reply_drafts d ON d.mention_id = m.id
		WHERE m.user_id = $1 AND d.id IS NULL
		ORDER BY m.created_at`

	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending mentions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentions: %w", err)
	}
	return ids, nil
}

// CreateReplyDraft records an empty draft slot for a mention. The draft body
// is composed later in the studio, outside this pipeline.
func (q *Queries) CreateReplyDraft(ctx context.Context, userID, mentionID uuid.UUID) error {
	const query = `
		INSERT INTO reply_drafts (id, mention_id, user_id)
		VALUES ($1, $2, $3)`

	if _, err := q.db.ExecContext(ctx, query, uuid.New(), mentionID, userID); err != nil {
		return fmt.Errorf("create reply draft: %w", err)
	}
	return nil
}
