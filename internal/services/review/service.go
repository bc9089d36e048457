package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
)

var (
	ErrInvalidAction = errors.New("invalid review action")

	// ErrNotFlagged is returned when a decision targets a track the
	// pipeline has not flagged.
	ErrNotFlagged = errors.New("track is not flagged")
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type TrackStore interface {
	GetByID(ctx context.Context, trackID string) (model.Track, error)
	ApplyDecision(ctx context.Context, trackID string, status enums.ModerationStatus, reviewerID string, decidedAt time.Time, reason string) error
}

type QueueStore interface {
	CompleteByTrack(ctx context.Context, trackID, reviewerID string, completedAt time.Time) error
	ListPending(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error)
	CountPending(ctx context.Context) (int, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, p notifications.Payload) []notifications.ChannelResult
}

type Service struct {
	tracks   TrackStore
	queue    QueueStore
	appeals  AppealStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

type Dependencies struct {
	Tracks   TrackStore
	Queue    QueueStore
	Appeals  AppealStore
	Notifier Notifier
}

func NewService(deps Dependencies, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		tracks:   deps.Tracks,
		queue:    deps.Queue,
		appeals:  deps.Appeals,
		notifier: deps.Notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Decide applies a human moderator's verdict to a flagged track,
// closes the matching review queue entry and notifies the uploader.
func (s *Service) Decide(ctx context.Context, trackID string, action Action, reviewerID, reason string) (model.Track, error) {
	if strings.TrimSpace(trackID) == "" || strings.TrimSpace(reviewerID) == "" {
		return model.Track{}, fmt.Errorf("invalid decision payload")
	}
	if action != ActionApprove && action != ActionReject {
		return model.Track{}, ErrInvalidAction
	}

	track, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return model.Track{}, err
	}
	if track.ModerationStatus != enums.ModerationStatusFlagged {
		return model.Track{}, ErrNotFlagged
	}

	status := enums.ModerationStatusApproved
	notifType := enums.NotificationTrackApproved
	if action == ActionReject {
		status = enums.ModerationStatusRejected
		notifType = enums.NotificationTrackRejected
	}

	reason = strings.TrimSpace(reason)
	decidedAt := s.now().UTC()
	if err := s.tracks.ApplyDecision(ctx, trackID, status, reviewerID, decidedAt, reason); err != nil {
		return model.Track{}, fmt.Errorf("apply decision: %w", err)
	}

	if s.queue != nil {
		if err := s.queue.CompleteByTrack(ctx, trackID, reviewerID, decidedAt); err != nil &&
			!errors.Is(err, postgres.ErrReviewEntryNotFound) {
			s.logger.Error("complete review entry failed", zap.String("track_id", trackID), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, notifications.Payload{
			UserID:     track.UserID,
			TrackID:    track.ID,
			TrackTitle: track.Title,
			ArtistName: track.ArtistName,
			Type:       notifType,
			Reason:     reason,
		})
	}

	track.ModerationStatus = status
	track.IsPublic = status == enums.ModerationStatusApproved
	if status == enums.ModerationStatusApproved {
		track.FlagReasons = []string{}
	} else if reason != "" {
		track.FlagReasons = append(track.FlagReasons, reason)
	}
	track.ReviewedBy = &reviewerID
	track.ReviewedAt = &decidedAt

	s.logger.Info("review decision applied",
		zap.String("track_id", trackID),
		zap.String("action", string(action)),
		zap.String("reviewer_id", reviewerID),
	)

	return track, nil
}

func (s *Service) ListQueue(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("queue store is nil")
	}
	return s.queue.ListPending(ctx, limit)
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("queue store is nil")
	}
	return s.queue.CountPending(ctx)
}
