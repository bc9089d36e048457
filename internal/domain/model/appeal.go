package model

import "time"

type Appeal struct {
	ID         string     `json:"id"`
	TrackID    string     `json:"track_id"`
	UserID     string     `json:"user_id"`
	AppealText string     `json:"appeal_text"`
	Status     string     `json:"status"`
	DecidedBy  *string    `json:"decided_by"`
	DecidedAt  *time.Time `json:"decided_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

const (
	AppealPending  = "pending"
	AppealApproved = "approved"
	AppealRejected = "rejected"
)
