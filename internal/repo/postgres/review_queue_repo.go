package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

var ErrReviewEntryNotFound = errors.New("review queue entry not found")

type ReviewQueueRepo struct {
	pool *pgxpool.Pool
}

func NewReviewQueueRepo(pool *pgxpool.Pool) *ReviewQueueRepo {
	return &ReviewQueueRepo{pool: pool}
}

// Enqueue records a flagged track for human review. A track with a
// pending entry is not queued twice; re-flagging refreshes the reasons,
// confidence and priority on the existing row instead.
func (r *ReviewQueueRepo) Enqueue(ctx context.Context, entry model.ReviewQueueEntry) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(entry.TrackID) == "" {
		return fmt.Errorf("invalid track id")
	}
	if entry.FlagReasons == nil {
		entry.FlagReasons = []string{}
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO review_queue (
	id, track_id, flag_reasons, confidence, priority, status, created_at
) VALUES ($1, $2, $3, $4, $5, 'pending', NOW())
ON CONFLICT (track_id) WHERE status = 'pending'
DO UPDATE SET
	flag_reasons = EXCLUDED.flag_reasons,
	confidence = EXCLUDED.confidence,
	priority = EXCLUDED.priority
`, entry.ID, entry.TrackID, entry.FlagReasons, entry.Confidence, string(entry.Priority)); err != nil {
		return fmt.Errorf("enqueue review entry: %w", err)
	}

	return nil
}

// CompleteByTrack closes the pending entry for a track after an admin
// decision. Returns ErrReviewEntryNotFound when no pending entry
// exists; decisions made straight from the track page tolerate that.
func (r *ReviewQueueRepo) CompleteByTrack(ctx context.Context, trackID, reviewerID string, completedAt time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(trackID) == "" {
		return fmt.Errorf("invalid track id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE review_queue
SET status = 'completed', completed_by = $2, completed_at = $3
WHERE track_id = $1 AND status = 'pending'
`, trackID, reviewerID, completedAt)
	if err != nil {
		return fmt.Errorf("complete review entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewEntryNotFound
	}

	return nil
}

// ListPending returns open entries ordered urgent first, oldest first
// within the same priority.
func (r *ReviewQueueRepo) ListPending(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, track_id, flag_reasons, confidence, priority, status, completed_by, completed_at, created_at
FROM review_queue
WHERE status = 'pending'
ORDER BY
	CASE priority
		WHEN 'urgent' THEN 0
		WHEN 'high' THEN 1
		ELSE 2
	END,
	created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending review entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ReviewQueueEntry, 0, limit)
	for rows.Next() {
		var entry model.ReviewQueueEntry
		var priority string
		if err := rows.Scan(
			&entry.ID,
			&entry.TrackID,
			&entry.FlagReasons,
			&entry.Confidence,
			&priority,
			&entry.Status,
			&entry.CompletedBy,
			&entry.CompletedAt,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review entry: %w", err)
		}
		entry.Priority = enums.ReviewPriority(priority)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review entries: %w", err)
	}

	return entries, nil
}

func (r *ReviewQueueRepo) CountPending(ctx context.Context) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM review_queue
WHERE status = 'pending'
`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending review entries: %w", err)
	}

	return count, nil
}
