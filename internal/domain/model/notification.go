package model

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      string                 `json:"link"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}
