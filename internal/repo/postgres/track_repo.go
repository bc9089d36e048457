package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

var (
	ErrTrackNotFound = errors.New("track not found")

	// ErrTrackStatusConflict is returned when a conditional status
	// update matched the track id but not the expected current status.
	ErrTrackStatusConflict = errors.New("track status conflict")
)

type TrackRepo struct {
	pool *pgxpool.Pool
}

func NewTrackRepo(pool *pgxpool.Pool) *TrackRepo {
	return &TrackRepo{pool: pool}
}

const trackColumns = `
id, user_id, title, artist_name, description, audio_url, object_key,
moderation_status, moderation_confidence, flag_reasons, transcription,
is_public, reviewed_by, reviewed_at, created_at, updated_at
`

func (r *TrackRepo) GetByID(ctx context.Context, trackID string) (model.Track, error) {
	if r.pool == nil {
		return model.Track{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(trackID) == "" {
		return model.Track{}, fmt.Errorf("invalid track id")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+trackColumns+`
FROM tracks
WHERE id = $1
`, trackID)

	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Track{}, ErrTrackNotFound
		}
		return model.Track{}, fmt.Errorf("get track by id: %w", err)
	}

	return track, nil
}

// ListPendingCheck returns the oldest tracks still waiting for an
// automated check, oldest first.
func (r *TrackRepo) ListPendingCheck(ctx context.Context, limit int) ([]model.Track, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+trackColumns+`
FROM tracks
WHERE moderation_status = $1
ORDER BY created_at ASC, id ASC
LIMIT $2
`, string(enums.ModerationStatusPendingCheck), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]model.Track, 0, limit)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending tracks: %w", err)
	}

	return tracks, nil
}

// SetStatus moves a track from one moderation status to another. The
// update is conditional on the current status so concurrent runs cannot
// double-claim the same track.
func (r *TrackRepo) SetStatus(ctx context.Context, trackID string, from, to enums.ModerationStatus) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(trackID) == "" {
		return fmt.Errorf("invalid track id")
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("disallowed status transition %s -> %s", from, to)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE tracks
SET moderation_status = $3, updated_at = NOW()
WHERE id = $1 AND moderation_status = $2
`, trackID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("set track status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM tracks WHERE id = $1)
`, trackID).Scan(&exists); err != nil {
			return fmt.Errorf("check track existence: %w", err)
		}
		if !exists {
			return ErrTrackNotFound
		}
		return ErrTrackStatusConflict
	}

	return nil
}

// ApplyVerdict records the outcome of an automated check. Flagged
// tracks are hidden from public listings; clean tracks keep their
// visibility untouched.
func (r *TrackRepo) ApplyVerdict(
	ctx context.Context,
	trackID string,
	status enums.ModerationStatus,
	confidence float64,
	flagReasons []string,
	transcription string,
) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(trackID) == "" {
		return fmt.Errorf("invalid track id")
	}
	if status != enums.ModerationStatusClean && status != enums.ModerationStatusFlagged {
		return fmt.Errorf("invalid verdict status %q", status)
	}
	if flagReasons == nil {
		flagReasons = []string{}
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE tracks
SET
	moderation_status = $2,
	moderation_confidence = $3,
	flag_reasons = $4,
	transcription = COALESCE(NULLIF($5, ''), transcription),
	is_public = CASE WHEN $2 = 'flagged' THEN FALSE ELSE is_public END,
	updated_at = NOW()
WHERE id = $1
`, trackID, string(status), confidence, flagReasons, transcription)
	if err != nil {
		return fmt.Errorf("apply track verdict: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrackNotFound
	}

	return nil
}

// ApplyDecision records a human review outcome on a flagged track.
// Approval restores public visibility and clears the flag reasons;
// rejection keeps the track hidden and appends the reviewer's reason
// to the flag reasons shown to the uploader.
func (r *TrackRepo) ApplyDecision(
	ctx context.Context,
	trackID string,
	status enums.ModerationStatus,
	reviewerID string,
	decidedAt time.Time,
	reason string,
) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(trackID) == "" {
		return fmt.Errorf("invalid track id")
	}
	if strings.TrimSpace(reviewerID) == "" {
		return fmt.Errorf("invalid reviewer id")
	}
	if status != enums.ModerationStatusApproved && status != enums.ModerationStatusRejected {
		return fmt.Errorf("invalid decision status %q", status)
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE tracks
SET
	moderation_status = $2,
	is_public = ($2 = 'approved'),
	flag_reasons = CASE
		WHEN $2 = 'approved' THEN '{}'::text[]
		WHEN $5 <> '' THEN array_append(flag_reasons, $5)
		ELSE flag_reasons
	END,
	reviewed_by = $3,
	reviewed_at = $4,
	updated_at = NOW()
WHERE id = $1
`, trackID, string(status), reviewerID, decidedAt, reason)
	if err != nil {
		return fmt.Errorf("apply track decision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTrackNotFound
	}

	return nil
}

// CountByStatus powers the moderation status endpoint.
func (r *TrackRepo) CountByStatus(ctx context.Context) (map[enums.ModerationStatus]int, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT moderation_status, COUNT(*)
FROM tracks
GROUP BY moderation_status
`)
	if err != nil {
		return nil, fmt.Errorf("count tracks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[enums.ModerationStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan track status count: %w", err)
		}
		counts[enums.ModerationStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track status counts: %w", err)
	}

	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrack(row rowScanner) (model.Track, error) {
	var track model.Track
	var status string
	err := row.Scan(
		&track.ID,
		&track.UserID,
		&track.Title,
		&track.ArtistName,
		&track.Description,
		&track.AudioURL,
		&track.ObjectKey,
		&status,
		&track.ModerationConfidence,
		&track.FlagReasons,
		&track.Transcription,
		&track.IsPublic,
		&track.ReviewedBy,
		&track.ReviewedAt,
		&track.CreatedAt,
		&track.UpdatedAt,
	)
	if err != nil {
		return model.Track{}, err
	}
	track.ModerationStatus = enums.ModerationStatus(status)
	return track, nil
}
