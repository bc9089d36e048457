package dto

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

type AdminReviewRequest struct {
	TrackID string `json:"track_id"`
	Action  string `json:"action"`
	Reason  string `json:"reason,omitempty"`
}

type TrackResponse struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	ArtistName           string     `json:"artist_name"`
	ModerationStatus     string     `json:"moderation_status"`
	ModerationConfidence float64    `json:"moderation_confidence"`
	FlagReasons          []string   `json:"flag_reasons"`
	IsPublic             bool       `json:"is_public"`
	ReviewedBy           *string    `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
}

func TrackResponseFromModel(track model.Track) TrackResponse {
	reasons := track.FlagReasons
	if reasons == nil {
		reasons = []string{}
	}
	return TrackResponse{
		ID:                   track.ID,
		Title:                track.Title,
		ArtistName:           track.ArtistName,
		ModerationStatus:     string(track.ModerationStatus),
		ModerationConfidence: track.ModerationConfidence,
		FlagReasons:          reasons,
		IsPublic:             track.IsPublic,
		ReviewedBy:           track.ReviewedBy,
		ReviewedAt:           track.ReviewedAt,
	}
}

type AdminReviewResponse struct {
	Success bool          `json:"success"`
	Track   TrackResponse `json:"track"`
}

type ReviewQueueEntryResponse struct {
	ID          string    `json:"id"`
	TrackID     string    `json:"track_id"`
	FlagReasons []string  `json:"flag_reasons"`
	Confidence  float64   `json:"confidence"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReviewQueueResponse struct {
	Entries []ReviewQueueEntryResponse `json:"entries"`
	Total   int                        `json:"total"`
}

func ReviewQueueEntryFromModel(entry model.ReviewQueueEntry) ReviewQueueEntryResponse {
	reasons := entry.FlagReasons
	if reasons == nil {
		reasons = []string{}
	}
	return ReviewQueueEntryResponse{
		ID:          entry.ID,
		TrackID:     entry.TrackID,
		FlagReasons: reasons,
		Confidence:  entry.Confidence,
		Priority:    string(entry.Priority),
		CreatedAt:   entry.CreatedAt,
	}
}
