package enums

type ModerationStatus string

const (
	ModerationStatusPendingCheck ModerationStatus = "pending_check"
	ModerationStatusChecking     ModerationStatus = "checking"
	ModerationStatusClean        ModerationStatus = "clean"
	ModerationStatusFlagged      ModerationStatus = "flagged"
	ModerationStatusApproved     ModerationStatus = "approved"
	ModerationStatusRejected     ModerationStatus = "rejected"
)

// allowedTransitions is the forward-only state machine. The automated
// pipeline drives pending_check -> checking -> clean|flagged (with a
// revert back to pending_check on failure); approved/rejected are
// reached from flagged through the admin decision path, and an
// approved appeal reinstates a rejected track.
var allowedTransitions = map[ModerationStatus][]ModerationStatus{
	ModerationStatusPendingCheck: {ModerationStatusChecking},
	ModerationStatusChecking:     {ModerationStatusClean, ModerationStatusFlagged, ModerationStatusPendingCheck},
	ModerationStatusFlagged:      {ModerationStatusApproved, ModerationStatusRejected},
	ModerationStatusRejected:     {ModerationStatusApproved},
}

func (s ModerationStatus) CanTransitionTo(next ModerationStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
