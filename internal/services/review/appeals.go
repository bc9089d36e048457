package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/services/notifications"
)

func notificationsPayload(track model.Track, notifType enums.NotificationType, reason, appealText string) notifications.Payload {
	return notifications.Payload{
		UserID:     track.UserID,
		TrackID:    track.ID,
		TrackTitle: track.Title,
		ArtistName: track.ArtistName,
		Type:       notifType,
		Reason:     reason,
		AppealText: appealText,
	}
}

var (
	ErrNotTrackOwner = errors.New("appeal must come from the track owner")

	// ErrNotAppealable covers tracks that were never rejected or
	// flagged; there is nothing for the owner to contest.
	ErrNotAppealable = errors.New("track decision cannot be appealed")
)

type AppealStore interface {
	Insert(ctx context.Context, appeal model.Appeal) error
	GetByID(ctx context.Context, appealID string) (model.Appeal, error)
	Decide(ctx context.Context, appealID, status, deciderID string, decidedAt time.Time) error
	ListPending(ctx context.Context, limit int) ([]model.Appeal, error)
}

// SubmitAppeal opens an appeal against a rejection (or a pending flag)
// and acknowledges it to the uploader on every channel.
func (s *Service) SubmitAppeal(ctx context.Context, userID, trackID, appealText string) (model.Appeal, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(trackID) == "" {
		return model.Appeal{}, fmt.Errorf("invalid appeal payload")
	}
	if s.appeals == nil {
		return model.Appeal{}, fmt.Errorf("appeal store is nil")
	}

	track, err := s.tracks.GetByID(ctx, trackID)
	if err != nil {
		return model.Appeal{}, err
	}
	if track.UserID != userID {
		return model.Appeal{}, ErrNotTrackOwner
	}
	if track.ModerationStatus != enums.ModerationStatusRejected &&
		track.ModerationStatus != enums.ModerationStatusFlagged {
		return model.Appeal{}, ErrNotAppealable
	}

	appeal := model.Appeal{
		ID:         uuid.NewString(),
		TrackID:    trackID,
		UserID:     userID,
		AppealText: strings.TrimSpace(appealText),
		Status:     model.AppealPending,
	}
	if err := s.appeals.Insert(ctx, appeal); err != nil {
		return model.Appeal{}, err
	}

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, notificationsPayload(track, enums.NotificationAppealReceived, "", appeal.AppealText))
	}

	s.logger.Info("appeal submitted",
		zap.String("appeal_id", appeal.ID),
		zap.String("track_id", trackID),
	)

	return appeal, nil
}

// DecideAppeal closes a pending appeal. An approved appeal reinstates
// the track exactly like an admin approval would.
func (s *Service) DecideAppeal(ctx context.Context, appealID string, action Action, deciderID string) (model.Appeal, error) {
	if strings.TrimSpace(appealID) == "" || strings.TrimSpace(deciderID) == "" {
		return model.Appeal{}, fmt.Errorf("invalid appeal decision payload")
	}
	if action != ActionApprove && action != ActionReject {
		return model.Appeal{}, ErrInvalidAction
	}
	if s.appeals == nil {
		return model.Appeal{}, fmt.Errorf("appeal store is nil")
	}

	appeal, err := s.appeals.GetByID(ctx, appealID)
	if err != nil {
		return model.Appeal{}, err
	}

	track, err := s.tracks.GetByID(ctx, appeal.TrackID)
	if err != nil {
		return model.Appeal{}, err
	}

	status := model.AppealApproved
	notifType := enums.NotificationAppealApproved
	if action == ActionReject {
		status = model.AppealRejected
		notifType = enums.NotificationAppealRejected
	}

	decidedAt := s.now().UTC()
	if err := s.appeals.Decide(ctx, appealID, status, deciderID, decidedAt); err != nil {
		return model.Appeal{}, err
	}

	if action == ActionApprove {
		if err := s.tracks.ApplyDecision(ctx, appeal.TrackID, enums.ModerationStatusApproved, deciderID, decidedAt, ""); err != nil {
			return model.Appeal{}, fmt.Errorf("reinstate track: %w", err)
		}
		if s.queue != nil {
			// close any leftover queue entry for the reinstated track
			_ = s.queue.CompleteByTrack(ctx, appeal.TrackID, deciderID, decidedAt)
		}
	}

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, notificationsPayload(track, notifType, "", appeal.AppealText))
	}

	appeal.Status = status
	appeal.DecidedBy = &deciderID
	appeal.DecidedAt = &decidedAt

	s.logger.Info("appeal decided",
		zap.String("appeal_id", appealID),
		zap.String("action", string(action)),
		zap.String("decider_id", deciderID),
	)

	return appeal, nil
}

func (s *Service) ListPendingAppeals(ctx context.Context, limit int) ([]model.Appeal, error) {
	if s.appeals == nil {
		return nil, fmt.Errorf("appeal store is nil")
	}
	return s.appeals.ListPending(ctx, limit)
}
