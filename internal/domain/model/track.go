package model

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
)

type Track struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"user_id"`
	Title                string                 `json:"title"`
	ArtistName           string                 `json:"artist_name"`
	Description          string                 `json:"description"`
	AudioURL             string                 `json:"audio_url"`
	ObjectKey            string                 `json:"object_key"`
	ModerationStatus     enums.ModerationStatus `json:"moderation_status"`
	ModerationConfidence float64                `json:"moderation_confidence"`
	FlagReasons          []string               `json:"flag_reasons"`
	Transcription        string                 `json:"transcription"`
	IsPublic             bool                   `json:"is_public"`
	ReviewedBy           *string                `json:"reviewed_by"`
	ReviewedAt           *time.Time             `json:"reviewed_at"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}
