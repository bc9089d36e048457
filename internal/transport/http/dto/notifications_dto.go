package dto

import "github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"

type NotificationListResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notification_id"`
}

type MarkNotificationReadResponse struct {
	OK bool `json:"ok"`
}
