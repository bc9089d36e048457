package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/pkg/validate"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
	authsvc "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/auth"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/dto"
	httperrors "github.com/Asibe-Cheta/soundbridge-sub008/internal/transport/http/errors"
)

type NotificationStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}

type NotificationsHandler struct {
	store NotificationStore
}

func NewNotificationsHandler(store NotificationStore) *NotificationsHandler {
	return &NotificationsHandler{store: store}
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeInternal(w, "NOTIFICATIONS_UNAVAILABLE", "notifications are unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	items, err := h.store.ListByUser(r.Context(), identity.UserID, 50)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "list notifications failed")
		return
	}
	if items == nil {
		items = []model.Notification{}
	}

	httperrors.Write(w, http.StatusOK, dto.NotificationListResponse{Notifications: items})
}

func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeInternal(w, "NOTIFICATIONS_UNAVAILABLE", "notifications are unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.MarkNotificationReadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}
	if !validate.Required(req.NotificationID) {
		writeBadRequest(w, "VALIDATION_ERROR", "notification_id is required")
		return
	}

	if err := h.store.MarkRead(r.Context(), identity.UserID, req.NotificationID); err != nil {
		if errors.Is(err, postgres.ErrNotificationNotFound) {
			writeNotFound(w, "NOTIFICATION_NOT_FOUND", "notification not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "mark notification read failed")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkNotificationReadResponse{OK: true})
}
