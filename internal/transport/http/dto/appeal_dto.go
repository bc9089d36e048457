package dto

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

type AppealSubmitRequest struct {
	TrackID    string `json:"track_id"`
	AppealText string `json:"appeal_text"`
}

type AppealDecideRequest struct {
	AppealID string `json:"appeal_id"`
	Action   string `json:"action"`
}

type AppealResponse struct {
	ID         string     `json:"id"`
	TrackID    string     `json:"track_id"`
	AppealText string     `json:"appeal_text"`
	Status     string     `json:"status"`
	DecidedBy  *string    `json:"decided_by,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func AppealResponseFromModel(appeal model.Appeal) AppealResponse {
	return AppealResponse{
		ID:         appeal.ID,
		TrackID:    appeal.TrackID,
		AppealText: appeal.AppealText,
		Status:     appeal.Status,
		DecidedBy:  appeal.DecidedBy,
		DecidedAt:  appeal.DecidedAt,
		CreatedAt:  appeal.CreatedAt,
	}
}

type AppealListResponse struct {
	Appeals []AppealResponse `json:"appeals"`
}
