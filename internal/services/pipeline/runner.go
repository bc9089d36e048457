package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/moderation"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/spam"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/transcription"
)

type TrackStore interface {
	ListPendingCheck(ctx context.Context, limit int) ([]model.Track, error)
	SetStatus(ctx context.Context, trackID string, from, to enums.ModerationStatus) error
	ApplyVerdict(ctx context.Context, trackID string, status enums.ModerationStatus, confidence float64, flagReasons []string, transcript string) error
}

type ReviewQueue interface {
	Enqueue(ctx context.Context, entry model.ReviewQueueEntry) error
}

type Transcriber interface {
	TranscribeURL(ctx context.Context, audioURL string) (transcription.Result, error)
}

type AudioResolver interface {
	ResolveAudioURL(ctx context.Context, ref string) (string, error)
}

type Moderator interface {
	Moderate(ctx context.Context, transcript string, meta spam.Metadata) (moderation.Verdict, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, p notifications.Payload) []notifications.ChannelResult
}

type Config struct {
	BatchSize            int
	ItemDelay            time.Duration
	TranscriptionEnabled bool
}

// Summary is what a single batch run reports back to the trigger.
type Summary struct {
	Processed int `json:"processed"`
	Flagged   int `json:"flagged"`
	Errors    int `json:"errors"`
}

type Runner struct {
	tracks      TrackStore
	reviewQueue ReviewQueue
	transcriber Transcriber
	resolver    AudioResolver
	moderator   Moderator
	notifier    Notifier
	cfg         Config
	logger      *zap.Logger
	newID       func() string
	sleep       func(ctx context.Context, d time.Duration)
}

type Dependencies struct {
	Tracks      TrackStore
	ReviewQueue ReviewQueue
	Transcriber Transcriber
	Resolver    AudioResolver
	Moderator   Moderator
	Notifier    Notifier
}

func NewRunner(deps Dependencies, cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.ItemDelay < 0 {
		cfg.ItemDelay = 0
	}

	return &Runner{
		tracks:      deps.Tracks,
		reviewQueue: deps.ReviewQueue,
		transcriber: deps.Transcriber,
		resolver:    deps.Resolver,
		moderator:   deps.Moderator,
		notifier:    deps.Notifier,
		cfg:         cfg,
		logger:      logger,
		newID:       uuid.NewString,
		sleep:       sleepWithContext,
	}
}

// ProcessBatch claims the oldest pending tracks one at a time, runs
// the transcription and moderation pipeline over each and records the
// verdict. A track that fails mid-flight is reverted to pending_check
// so the next run retries it; one bad track never aborts the batch.
func (r *Runner) ProcessBatch(ctx context.Context) (Summary, error) {
	if r.tracks == nil || r.moderator == nil {
		return Summary{}, fmt.Errorf("pipeline runner is not fully wired")
	}

	pending, err := r.tracks.ListPendingCheck(ctx, r.cfg.BatchSize)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch pending tracks: %w", err)
	}
	if len(pending) == 0 {
		return Summary{}, nil
	}

	r.logger.Info("processing moderation batch", zap.Int("tracks", len(pending)))

	var summary Summary
	for i, track := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := r.tracks.SetStatus(ctx, track.ID, enums.ModerationStatusPendingCheck, enums.ModerationStatusChecking); err != nil {
			if errors.Is(err, postgres.ErrTrackStatusConflict) || errors.Is(err, postgres.ErrTrackNotFound) {
				// another run claimed it first
				continue
			}
			r.logger.Error("claim track failed", zap.String("track_id", track.ID), zap.Error(err))
			summary.Errors++
			continue
		}

		flagged, err := r.processTrack(ctx, track)
		if err != nil {
			r.logger.Error("track moderation failed",
				zap.String("track_id", track.ID),
				zap.String("title", track.Title),
				zap.Error(err),
			)
			summary.Errors++
			r.revert(ctx, track.ID)
		} else {
			summary.Processed++
			if flagged {
				summary.Flagged++
			}
		}

		if i < len(pending)-1 && r.cfg.ItemDelay > 0 {
			r.sleep(ctx, r.cfg.ItemDelay)
		}
	}

	r.logger.Info("moderation batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("flagged", summary.Flagged),
		zap.Int("errors", summary.Errors),
	)

	return summary, nil
}

func (r *Runner) processTrack(ctx context.Context, track model.Track) (bool, error) {
	transcript := ""
	if r.cfg.TranscriptionEnabled {
		if r.transcriber == nil {
			return false, fmt.Errorf("transcriber is nil")
		}
		// A stored object key wins over the public URL so private
		// buckets get a presigned GET.
		audioURL := track.AudioURL
		if track.ObjectKey != "" {
			audioURL = track.ObjectKey
		}
		if r.resolver != nil {
			resolved, err := r.resolver.ResolveAudioURL(ctx, audioURL)
			if err != nil {
				return false, fmt.Errorf("resolve audio url: %w", err)
			}
			audioURL = resolved
		}
		result, err := r.transcriber.TranscribeURL(ctx, audioURL)
		if err != nil {
			return false, fmt.Errorf("transcribe track: %w", err)
		}
		transcript = result.Text
	}

	verdict, err := r.moderator.Moderate(ctx, transcript, spam.Metadata{
		Title:       track.Title,
		Description: track.Description,
		ArtistName:  track.ArtistName,
	})
	if err != nil {
		return false, fmt.Errorf("moderate track: %w", err)
	}

	reasons := []string{}
	if verdict.IsFlagged {
		reasons = verdict.FlagReasons
	}
	if err := r.tracks.ApplyVerdict(ctx, track.ID, verdict.Status, verdict.Confidence, reasons, transcript); err != nil {
		return false, fmt.Errorf("apply verdict: %w", err)
	}

	if !verdict.IsFlagged {
		return false, nil
	}

	// Review queue and notifications are best effort: the verdict is
	// already recorded, so neither failure reverts the track.
	if r.reviewQueue != nil {
		entry := model.ReviewQueueEntry{
			ID:          r.newID(),
			TrackID:     track.ID,
			FlagReasons: verdict.FlagReasons,
			Confidence:  verdict.Confidence,
			Priority:    enums.PriorityForConfidence(verdict.Confidence),
			Status:      model.ReviewEntryPending,
		}
		if err := r.reviewQueue.Enqueue(ctx, entry); err != nil {
			r.logger.Error("enqueue review entry failed", zap.String("track_id", track.ID), zap.Error(err))
		} else {
			r.logger.Info("track queued for review",
				zap.String("track_id", track.ID),
				zap.String("priority", string(entry.Priority)),
			)
		}
	}

	if r.notifier != nil {
		r.notifier.Dispatch(ctx, notifications.Payload{
			UserID:     track.UserID,
			TrackID:    track.ID,
			TrackTitle: track.Title,
			ArtistName: track.ArtistName,
			Type:       enums.NotificationTrackFlagged,
			Reason:     firstReason(verdict.FlagReasons),
		})
	}

	return true, nil
}

func (r *Runner) revert(ctx context.Context, trackID string) {
	if err := r.tracks.SetStatus(ctx, trackID, enums.ModerationStatusChecking, enums.ModerationStatusPendingCheck); err != nil {
		r.logger.Error("revert track to pending failed", zap.String("track_id", trackID), zap.Error(err))
	}
}

func firstReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
