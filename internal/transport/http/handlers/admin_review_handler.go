package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/pkg/validate"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	reviewsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/review"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/dto"
	httperrors "github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/errors"
)

type ReviewService interface {
	Decide(ctx context.Context, trackID string, action reviewsvc.Action, reviewerID, reason string) (model.Track, error)
	ListQueue(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error)
	PendingCount(ctx context.Context) (int, error)
}

type AdminReviewHandler struct {
	service ReviewService
}

func NewAdminReviewHandler(service ReviewService) *AdminReviewHandler {
	return &AdminReviewHandler{service: service}
}

func (h *AdminReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.AdminReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.TrackID) || !validate.Required(req.Action) {
		writeBadRequest(w, "VALIDATION_ERROR", "track_id and action are required")
		return
	}

	track, err := h.service.Decide(r.Context(), req.TrackID, reviewsvc.Action(req.Action), identity.UserID, req.Reason)
	if err != nil {
		handleReviewError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminReviewResponse{
		Success: true,
		Track:   dto.TrackResponseFromModel(track),
	})
}

func (h *AdminReviewHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REVIEW_SERVICE_UNAVAILABLE", "review service is unavailable")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.ListQueue(r.Context(), limit)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "list review queue failed")
		return
	}
	total, err := h.service.PendingCount(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "count review queue failed")
		return
	}

	out := make([]dto.ReviewQueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.ReviewQueueEntryFromModel(entry))
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewQueueResponse{
		Entries: out,
		Total:   total,
	})
}

func handleReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviewsvc.ErrInvalidAction):
		writeBadRequest(w, "INVALID_ACTION", "action must be approve or reject")
	case errors.Is(err, reviewsvc.ErrNotFlagged):
		writeBadRequest(w, "TRACK_NOT_FLAGGED", "track is not awaiting review")
	case errors.Is(err, postgres.ErrTrackNotFound):
		writeNotFound(w, "TRACK_NOT_FOUND", "track not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
