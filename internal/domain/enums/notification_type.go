package enums

type NotificationType string

const (
	NotificationTrackFlagged   NotificationType = "track_flagged"
	NotificationTrackApproved  NotificationType = "track_approved"
	NotificationTrackRejected  NotificationType = "track_rejected"
	NotificationAppealReceived NotificationType = "appeal_received"
	NotificationAppealApproved NotificationType = "appeal_approved"
	NotificationAppealRejected NotificationType = "appeal_rejected"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTrackFlagged, NotificationTrackApproved, NotificationTrackRejected,
		NotificationAppealReceived, NotificationAppealApproved, NotificationAppealRejected:
		return true
	}
	return false
}
