package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/dto"
	httperrors "github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/errors"
)

type TrackReader interface {
	GetByID(ctx context.Context, trackID string) (model.Track, error)
	CountByStatus(ctx context.Context) (map[enums.ModerationStatus]int, error)
}

type AppealChecker interface {
	HasPendingForTrack(ctx context.Context, trackID string) (bool, error)
}

type QueueCounter interface {
	CountPending(ctx context.Context) (int, error)
}

type ModerationHandler struct {
	tracks  TrackReader
	appeals AppealChecker
	queue   QueueCounter
}

func NewModerationHandler(tracks TrackReader, appeals AppealChecker, queue QueueCounter) *ModerationHandler {
	return &ModerationHandler{
		tracks:  tracks,
		appeals: appeals,
		queue:   queue,
	}
}

// Status reports a single track's moderation outcome to its uploader.
// Reviewer roles can query any track; everyone else only their own.
func (h *ModerationHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.tracks == nil || h.appeals == nil {
		writeInternal(w, "MODERATION_UNAVAILABLE", "moderation status is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	trackID := strings.TrimSpace(r.URL.Query().Get("track_id"))
	if trackID == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "track_id is required")
		return
	}

	track, err := h.tracks.GetByID(r.Context(), trackID)
	if err != nil {
		if errors.Is(err, postgres.ErrTrackNotFound) {
			writeNotFound(w, "TRACK_NOT_FOUND", "track not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "load track failed")
		return
	}

	if track.UserID != identity.UserID && !isReviewerRole(identity.Role) {
		writeForbidden(w, "FORBIDDEN", "not your track")
		return
	}

	resp := dto.TrackModerationStatusResponse{
		TrackID:  track.ID,
		Status:   string(track.ModerationStatus),
		IsPublic: track.IsPublic,
	}

	switch track.ModerationStatus {
	case enums.ModerationStatusFlagged, enums.ModerationStatusRejected:
		resp.FlagReasons = track.FlagReasons
		if track.UserID == identity.UserID {
			pending, err := h.appeals.HasPendingForTrack(r.Context(), track.ID)
			if err != nil {
				writeInternal(w, "INTERNAL_ERROR", "check appeal failed")
				return
			}
			resp.CanAppeal = !pending
		}
	}

	httperrors.Write(w, http.StatusOK, resp)
}

// Stats is the reviewer-facing aggregate: tracks per moderation status
// plus the pending review queue depth.
func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.tracks == nil || h.queue == nil {
		writeInternal(w, "MODERATION_UNAVAILABLE", "moderation stats are unavailable")
		return
	}

	counts, err := h.tracks.CountByStatus(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "count tracks failed")
		return
	}
	pending, err := h.queue.CountPending(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "count review queue failed")
		return
	}

	out := make(map[string]int, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}

	httperrors.Write(w, http.StatusOK, dto.ModerationStatsResponse{
		Counts:        out,
		PendingReview: pending,
	})
}

func isReviewerRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(enums.RoleAdmin), string(enums.RoleSuperAdmin), string(enums.RoleModerator):
		return true
	}
	return false
}
