package dispatch

import (
	"fmt"
	"time"
)

// ComposeEmail renders the subject and body for one event kind. Times are
// shown as stored (UTC); the portal frontend owns local-time rendering.
func ComposeEmail(kind string, evt Event) (string, string) {
	when := displayTime(evt.StartTime)
	physician := evt.PhysicianName
	if physician == "" {
		physician = "your physician"
	}

	switch kind {
	case "pending":
		subject := "Appointment request received"
		body := fmt.Sprintf("Hello %s,\n\nWe received your appointment request with %s for %s. You will get a confirmation once it is scheduled.\n", evt.PatientName, physician, when)
		return subject, body
	case KindCreated:
		subject := "Appointment confirmed"
		body := fmt.Sprintf("Hello %s,\n\nYour appointment with %s is confirmed for %s.\n", evt.PatientName, physician, when)
		if evt.IsVirtual && evt.MeetingLink != "" {
			body += fmt.Sprintf("\nThis is a virtual visit. Join here: %s\n", evt.MeetingLink)
		}
		return subject, body
	case KindCancelled:
		subject := "Appointment cancelled"
		reason := evt.CancellationReason
		if reason == "" {
			reason = "Not provided"
		}
		body := fmt.Sprintf("Hello %s,\n\nYour appointment with %s for %s has been cancelled.\nReason: %s\n", evt.PatientName, physician, when, reason)
		return subject, body
	case KindReminder:
		subject := "Appointment reminder"
		body := fmt.Sprintf("Hello %s,\n\nThis is a reminder: your appointment with %s starts at %s.\n", evt.PatientName, physician, when)
		if evt.IsVirtual && evt.MeetingLink != "" {
			body += fmt.Sprintf("\nJoin your virtual visit here: %s\n", evt.MeetingLink)
		}
		return subject, body
	default:
		subject := "Appointment update"
		body := fmt.Sprintf("Hello %s,\n\nThere is an update for your appointment with %s on %s.\n", evt.PatientName, physician, when)
		return subject, body
	}
}

func ComposeSMS(kind string, evt Event) string {
	when := displayTime(evt.StartTime)
	switch kind {
	case "pending":
		return fmt.Sprintf("Appointment request received for %s.", when)
	case KindCreated:
		return fmt.Sprintf("Appointment confirmed for %s with %s.", when, evt.PhysicianName)
	case KindCancelled:
		return fmt.Sprintf("Your appointment for %s was cancelled.", when)
	case KindReminder:
		return fmt.Sprintf("Reminder: your appointment starts at %s.", when)
	default:
		return fmt.Sprintf("Update for your appointment on %s.", when)
	}
}

func displayTime(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}
