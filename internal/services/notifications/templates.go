package notifications

import (
	"fmt"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
)

// Payload carries everything the channels need to render a message.
type Payload struct {
	UserID     string
	TrackID    string
	TrackTitle string
	ArtistName string
	Type       enums.NotificationType
	Reason     string
	AppealText string
}

type emailTemplate struct {
	Subject string
	HTML    string
}

func emailFor(p Payload, username string) emailTemplate {
	switch p.Type {
	case enums.NotificationTrackFlagged:
		return emailTemplate{
			Subject: fmt.Sprintf("🔍 Your track %q is under review", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"Your track %q by %s has been flagged for review by our moderation system. Our team will take a look and get back to you soon.",
				p.TrackTitle, p.ArtistName,
			), p.Reason),
		}
	case enums.NotificationTrackApproved:
		return emailTemplate{
			Subject: fmt.Sprintf("✅ Great news! Your track %q has been approved", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"Your track %q is now live and visible to everyone on SoundBridge.",
				p.TrackTitle,
			), ""),
		}
	case enums.NotificationTrackRejected:
		return emailTemplate{
			Subject: fmt.Sprintf("❌ Update about your track %q", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"After review, your track %q was not approved for publication. You can appeal this decision from the track page.",
				p.TrackTitle,
			), p.Reason),
		}
	case enums.NotificationAppealReceived:
		return emailTemplate{
			Subject: fmt.Sprintf("📬 We received your appeal for %q", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"We received your appeal for %q and our team is reviewing it.",
				p.TrackTitle,
			), p.AppealText),
		}
	case enums.NotificationAppealApproved:
		return emailTemplate{
			Subject: fmt.Sprintf("🎉 Your appeal for %q has been approved!", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"Good news: your appeal was successful and %q has been reinstated.",
				p.TrackTitle,
			), ""),
		}
	default: // appeal_rejected
		return emailTemplate{
			Subject: fmt.Sprintf("Appeal decision for %q", p.TrackTitle),
			HTML: emailBody(username, fmt.Sprintf(
				"A decision has been made on your appeal for %q. The original moderation decision stands.",
				p.TrackTitle,
			), p.Reason),
		}
	}
}

func emailBody(username, lead, detail string) string {
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", username, lead)
	if detail != "" {
		body += fmt.Sprintf("<p><em>%s</em></p>", detail)
	}
	body += "<p>— The SoundBridge Team</p>"
	return body
}

var inAppMessages = map[enums.NotificationType]string{
	enums.NotificationTrackFlagged:   `Your track %q is under review`,
	enums.NotificationTrackApproved:  `Your track %q has been approved! 🎉`,
	enums.NotificationTrackRejected:  `Your track %q was not approved`,
	enums.NotificationAppealReceived: `We received your appeal for %q`,
	enums.NotificationAppealApproved: `Your appeal for %q has been approved! 🎉`,
	enums.NotificationAppealRejected: `Appeal decision for %q`,
}

func inAppMessageFor(p Payload) string {
	return fmt.Sprintf(inAppMessages[p.Type], p.TrackTitle)
}

type pushMessage struct {
	Title string
	Body  string
}

var pushMessages = map[enums.NotificationType]pushMessage{
	enums.NotificationTrackFlagged: {
		Title: "🔍 Track Under Review",
		Body:  `%q is being reviewed by our team`,
	},
	enums.NotificationTrackApproved: {
		Title: "✅ Track Approved!",
		Body:  `%q is now live`,
	},
	enums.NotificationTrackRejected: {
		Title: "❌ Track Not Approved",
		Body:  `%q was not approved. Tap to appeal.`,
	},
	enums.NotificationAppealReceived: {
		Title: "📬 Appeal Received",
		Body:  `We're reviewing your appeal for %q`,
	},
	enums.NotificationAppealApproved: {
		Title: "🎉 Appeal Approved!",
		Body:  `%q has been reinstated`,
	},
	enums.NotificationAppealRejected: {
		Title: "Appeal Decision",
		Body:  `Decision made on your appeal for %q`,
	},
}

func pushMessageFor(p Payload) pushMessage {
	msg := pushMessages[p.Type]
	msg.Body = fmt.Sprintf(msg.Body, p.TrackTitle)
	return msg
}
