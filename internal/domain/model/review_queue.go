package model

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
)

type ReviewQueueEntry struct {
	ID          string               `json:"id"`
	TrackID     string               `json:"track_id"`
	FlagReasons []string             `json:"flag_reasons"`
	Confidence  float64              `json:"confidence"`
	Priority    enums.ReviewPriority `json:"priority"`
	Status      string               `json:"status"`
	CompletedBy *string              `json:"completed_by"`
	CompletedAt *time.Time           `json:"completed_at"`
	CreatedAt   time.Time            `json:"created_at"`
}

const (
	ReviewEntryPending   = "pending"
	ReviewEntryCompleted = "completed"
)
