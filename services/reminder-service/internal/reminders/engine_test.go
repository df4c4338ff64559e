package reminders

import (
	"testing"
	"time"
)

func TestKindForLead(t *testing.T) {
	if got := KindForLead(time.Hour); got != "1hour" {
		t.Fatalf("KindForLead(1h) = %q", got)
	}
	if got := KindForLead(24 * time.Hour); got != "24hour" {
		t.Fatalf("KindForLead(24h) = %q", got)
	}
	if got := KindForLead(90 * time.Minute); got != "90min" {
		t.Fatalf("KindForLead(90m) = %q", got)
	}
}

func TestDue_WithinWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine([]time.Duration{time.Hour})

	// 1h03m out: 1.05 hours, inside (0.75, 1.25).
	appt := Appointment{ID: "a1", StartTime: now.Add(time.Hour + 3*time.Minute)}
	due := engine.Due(now, []Appointment{appt}, History{})
	if len(due) != 1 {
		t.Fatalf("expected 1 due reminder, got %d", len(due))
	}
	if due[0].Kind != "1hour" || due[0].Appointment.ID != "a1" {
		t.Fatalf("unexpected due pair: %+v", due[0])
	}
}

func TestDue_ExcludedAfterRecorded(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine([]time.Duration{time.Hour})
	appt := Appointment{ID: "a1", StartTime: now.Add(time.Hour + 3*time.Minute)}

	history := History{"a1": {"1hour"}}
	// Second sweep two minutes later, still inside the window.
	due := engine.Due(now.Add(2*time.Minute), []Appointment{appt}, history)
	if len(due) != 0 {
		t.Fatalf("recorded reminder must not be returned again, got %d", len(due))
	}
}

func TestDue_WindowBoundsAreStrict(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine([]time.Duration{time.Hour})

	cases := []struct {
		name  string
		until time.Duration
		want  int
	}{
		{name: "exactly lower bound", until: 45 * time.Minute, want: 0},
		{name: "just inside lower", until: 46 * time.Minute, want: 1},
		{name: "just inside upper", until: 74 * time.Minute, want: 1},
		{name: "exactly upper bound", until: 75 * time.Minute, want: 0},
		{name: "far out", until: 3 * time.Hour, want: 0},
	}
	for _, c := range cases {
		appt := Appointment{ID: "a1", StartTime: now.Add(c.until)}
		due := engine.Due(now, []Appointment{appt}, History{})
		if len(due) != c.want {
			t.Fatalf("%s: expected %d due, got %d", c.name, c.want, len(due))
		}
	}
}

func TestDue_PastAppointmentsSkipped(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine([]time.Duration{time.Hour})

	appt := Appointment{ID: "a1", StartTime: now.Add(-time.Hour)}
	if due := engine.Due(now, []Appointment{appt}, History{}); len(due) != 0 {
		t.Fatalf("past appointment must not be due, got %d", len(due))
	}
}

func TestDue_MultipleLeads(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine([]time.Duration{time.Hour, 24 * time.Hour})

	soon := Appointment{ID: "a1", StartTime: now.Add(time.Hour)}
	tomorrow := Appointment{ID: "a2", StartTime: now.Add(23 * time.Hour)}

	due := engine.Due(now, []Appointment{soon, tomorrow}, History{})
	if len(due) != 2 {
		t.Fatalf("expected 2 due reminders, got %d", len(due))
	}
	if due[0].Kind != "1hour" || due[1].Kind != "24hour" {
		t.Fatalf("unexpected kinds: %q, %q", due[0].Kind, due[1].Kind)
	}
}
