package dto

import "github.com/Asibe-Cheta/soundbridge-sub008/internal/services/pipeline"

type CronRunResponse struct {
	Success bool             `json:"success"`
	Result  pipeline.Summary `json:"result"`
}
