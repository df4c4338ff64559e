package dispatch

import (
	"strings"
	"testing"
)

func sampleEvent() Event {
	return Event{
		AppointmentID: "a1",
		PatientName:   "Pat Doe",
		PatientEmail:  "pat@example.com",
		PhysicianName: "Dr. Reyes",
		StartTime:     "2026-09-02T10:00:00Z",
		EndTime:       "2026-09-02T10:30:00Z",
	}
}

func TestComposeEmail_Confirmed(t *testing.T) {
	subject, body := ComposeEmail(KindCreated, sampleEvent())
	if subject != "Appointment confirmed" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Dr. Reyes") || !strings.Contains(body, "Wed, 02 Sep 2026 10:00 UTC") {
		t.Fatalf("body missing physician or time:\n%s", body)
	}
}

func TestComposeEmail_VirtualIncludesLink(t *testing.T) {
	evt := sampleEvent()
	evt.IsVirtual = true
	evt.MeetingLink = "https://meet.example.com/abc"

	_, body := ComposeEmail(KindReminder, evt)
	if !strings.Contains(body, evt.MeetingLink) {
		t.Fatalf("reminder body missing meeting link:\n%s", body)
	}
}

func TestComposeEmail_CancelledDefaultsReason(t *testing.T) {
	subject, body := ComposeEmail(KindCancelled, sampleEvent())
	if subject != "Appointment cancelled" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Reason: Not provided") {
		t.Fatalf("body missing default reason:\n%s", body)
	}
}

func TestComposeSMS_Short(t *testing.T) {
	msg := ComposeSMS(KindReminder, sampleEvent())
	if !strings.Contains(msg, "Reminder") {
		t.Fatalf("unexpected sms %q", msg)
	}
	if len(msg) > 160 {
		t.Fatalf("sms exceeds a single segment: %d chars", len(msg))
	}
}

func TestDisplayTime_FallsBackToRaw(t *testing.T) {
	if got := displayTime("not-a-time"); got != "not-a-time" {
		t.Fatalf("expected raw value back, got %q", got)
	}
}
