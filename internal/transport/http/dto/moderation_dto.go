package dto

type TrackModerationStatusResponse struct {
	TrackID     string   `json:"track_id"`
	Status      string   `json:"status"`
	FlagReasons []string `json:"flag_reasons,omitempty"`
	IsPublic    bool     `json:"is_public"`
	CanAppeal   bool     `json:"can_appeal"`
}

type ModerationStatsResponse struct {
	Counts        map[string]int `json:"counts"`
	PendingReview int            `json:"pending_review"`
}
