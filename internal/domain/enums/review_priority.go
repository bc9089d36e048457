package enums

type ReviewPriority string

const (
	ReviewPriorityUrgent ReviewPriority = "urgent"
	ReviewPriorityHigh   ReviewPriority = "high"
	ReviewPriorityNormal ReviewPriority = "normal"
)

// PriorityForConfidence maps a moderation confidence to the review
// priority used when the flagged track is queued for a human.
func PriorityForConfidence(confidence float64) ReviewPriority {
	switch {
	case confidence >= 0.9:
		return ReviewPriorityUrgent
	case confidence >= 0.7:
		return ReviewPriorityHigh
	default:
		return ReviewPriorityNormal
	}
}
