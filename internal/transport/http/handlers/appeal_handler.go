package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/pkg/validate"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	reviewsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/review"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/dto"
	httperrors "github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/errors"
)

type AppealService interface {
	SubmitAppeal(ctx context.Context, userID, trackID, appealText string) (model.Appeal, error)
	DecideAppeal(ctx context.Context, appealID string, action reviewsvc.Action, deciderID string) (model.Appeal, error)
	ListPendingAppeals(ctx context.Context, limit int) ([]model.Appeal, error)
}

type AppealHandler struct {
	service AppealService
}

func NewAppealHandler(service AppealService) *AppealHandler {
	return &AppealHandler{service: service}
}

func (h *AppealHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.AppealSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.TrackID) || !validate.Required(req.AppealText) {
		writeBadRequest(w, "VALIDATION_ERROR", "track_id and appeal_text are required")
		return
	}

	appeal, err := h.service.SubmitAppeal(r.Context(), identity.UserID, req.TrackID, req.AppealText)
	if err != nil {
		handleAppealError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.AppealResponseFromModel(appeal))
}

func (h *AppealHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.AppealDecideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.AppealID) || !validate.Required(req.Action) {
		writeBadRequest(w, "VALIDATION_ERROR", "appeal_id and action are required")
		return
	}

	appeal, err := h.service.DecideAppeal(r.Context(), req.AppealID, reviewsvc.Action(req.Action), identity.UserID)
	if err != nil {
		handleAppealError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AppealResponseFromModel(appeal))
}

func (h *AppealHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "APPEAL_SERVICE_UNAVAILABLE", "appeal service is unavailable")
		return
	}

	appeals, err := h.service.ListPendingAppeals(r.Context(), 50)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "list appeals failed")
		return
	}

	out := make([]dto.AppealResponse, 0, len(appeals))
	for _, appeal := range appeals {
		out = append(out, dto.AppealResponseFromModel(appeal))
	}

	httperrors.Write(w, http.StatusOK, dto.AppealListResponse{Appeals: out})
}

func handleAppealError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviewsvc.ErrInvalidAction):
		writeBadRequest(w, "INVALID_ACTION", "action must be approve or reject")
	case errors.Is(err, reviewsvc.ErrNotTrackOwner):
		writeForbidden(w, "NOT_TRACK_OWNER", "only the uploader can appeal a track")
	case errors.Is(err, reviewsvc.ErrNotAppealable):
		writeBadRequest(w, "NOT_APPEALABLE", "track is not in an appealable state")
	case errors.Is(err, postgres.ErrAppealExists):
		writeConflict(w, "APPEAL_EXISTS", "an appeal for this track is already pending")
	case errors.Is(err, postgres.ErrAppealNotFound):
		writeNotFound(w, "APPEAL_NOT_FOUND", "appeal not found")
	case errors.Is(err, postgres.ErrTrackNotFound):
		writeNotFound(w, "TRACK_NOT_FOUND", "track not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
