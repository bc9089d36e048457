package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

var (
	ErrAppealNotFound = errors.New("appeal not found")

	// ErrAppealExists is returned when an open appeal already covers
	// the track.
	ErrAppealExists = errors.New("appeal already pending")
)

type AppealRepo struct {
	pool *pgxpool.Pool
}

func NewAppealRepo(pool *pgxpool.Pool) *AppealRepo {
	return &AppealRepo{pool: pool}
}

func (r *AppealRepo) Insert(ctx context.Context, appeal model.Appeal) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(appeal.TrackID) == "" || strings.TrimSpace(appeal.UserID) == "" {
		return fmt.Errorf("invalid appeal payload")
	}

	pending, err := r.HasPendingForTrack(ctx, appeal.TrackID)
	if err != nil {
		return err
	}
	if pending {
		return ErrAppealExists
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO appeals (
	id, track_id, user_id, appeal_text, status, created_at
) VALUES ($1, $2, $3, $4, 'pending', NOW())
`, appeal.ID, appeal.TrackID, appeal.UserID, appeal.AppealText); err != nil {
		return fmt.Errorf("insert appeal: %w", err)
	}

	return nil
}

func (r *AppealRepo) HasPendingForTrack(ctx context.Context, trackID string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var pending bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM appeals WHERE track_id = $1 AND status = 'pending'
)
`, trackID).Scan(&pending); err != nil {
		return false, fmt.Errorf("check pending appeal: %w", err)
	}

	return pending, nil
}

func (r *AppealRepo) GetByID(ctx context.Context, appealID string) (model.Appeal, error) {
	if r.pool == nil {
		return model.Appeal{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(appealID) == "" {
		return model.Appeal{}, fmt.Errorf("invalid appeal id")
	}

	var appeal model.Appeal
	err := r.pool.QueryRow(ctx, `
SELECT id, track_id, user_id, appeal_text, status, decided_by, decided_at, created_at
FROM appeals
WHERE id = $1
`, appealID).Scan(
		&appeal.ID,
		&appeal.TrackID,
		&appeal.UserID,
		&appeal.AppealText,
		&appeal.Status,
		&appeal.DecidedBy,
		&appeal.DecidedAt,
		&appeal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Appeal{}, ErrAppealNotFound
		}
		return model.Appeal{}, fmt.Errorf("get appeal by id: %w", err)
	}

	return appeal, nil
}

// Decide closes a pending appeal. The update is conditional on the
// appeal still being pending so two admins cannot decide it twice.
func (r *AppealRepo) Decide(ctx context.Context, appealID, status, deciderID string, decidedAt time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(appealID) == "" {
		return fmt.Errorf("invalid appeal id")
	}
	if status != model.AppealApproved && status != model.AppealRejected {
		return fmt.Errorf("invalid appeal status %q", status)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE appeals
SET status = $2, decided_by = $3, decided_at = $4
WHERE id = $1 AND status = 'pending'
`, appealID, status, deciderID, decidedAt)
	if err != nil {
		return fmt.Errorf("decide appeal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppealNotFound
	}

	return nil
}

func (r *AppealRepo) ListPending(ctx context.Context, limit int) ([]model.Appeal, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, track_id, user_id, appeal_text, status, decided_by, decided_at, created_at
FROM appeals
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending appeals: %w", err)
	}
	defer rows.Close()

	appeals := make([]model.Appeal, 0, limit)
	for rows.Next() {
		var appeal model.Appeal
		if err := rows.Scan(
			&appeal.ID,
			&appeal.TrackID,
			&appeal.UserID,
			&appeal.AppealText,
			&appeal.Status,
			&appeal.DecidedBy,
			&appeal.DecidedAt,
			&appeal.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		appeals = append(appeals, appeal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}

	return appeals, nil
}
