package reminders

import (
	"fmt"
	"time"
)

// Kind names a reminder lead time, e.g. "1hour" or "24hour". It is what gets
// recorded per appointment so the same reminder is never dispatched twice.
type Kind string

func KindForLead(lead time.Duration) Kind {
	switch minutes := int(lead.Minutes()); minutes {
	case 60:
		return "1hour"
	case 24 * 60:
		return "24hour"
	default:
		return Kind(fmt.Sprintf("%dmin", minutes))
	}
}

// Appointment is the reminder service's read-only view of a scheduled
// appointment. It owns none of these fields; the scheduling service does.
type Appointment struct {
	ID            string
	PatientID     string
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	PhysicianName string
	StartTime     time.Time
	EndTime       time.Time
	IsVirtual     bool
	MeetingLink   string
}

// History records which reminder kinds were already sent per appointment id.
type History map[string][]Kind

func (h History) Contains(appointmentID string, kind Kind) bool {
	for _, k := range h[appointmentID] {
		if k == kind {
			return true
		}
	}
	return false
}

type DueReminder struct {
	Appointment Appointment
	Kind        Kind
	Lead        time.Duration
}

// Engine decides which appointments are due a reminder. For each configured
// lead L, an appointment qualifies when the time until its start is strictly
// inside (0.75*L, 1.25*L). The tolerance band absorbs sweep-interval jitter:
// a sweep every few minutes cannot land on the exact lead instant.
type Engine struct {
	leads []time.Duration
}

func NewEngine(leads []time.Duration) *Engine {
	return &Engine{leads: leads}
}

// Due returns the (appointment, kind) pairs eligible now and not yet in
// history. Callers must record each dispatch before the next sweep can see it,
// otherwise overlapping windows would double-send.
func (e *Engine) Due(now time.Time, appts []Appointment, history History) []DueReminder {
	var due []DueReminder
	for _, appt := range appts {
		until := appt.StartTime.Sub(now)
		if until <= 0 {
			continue
		}
		for _, lead := range e.leads {
			lower := time.Duration(float64(lead) * 0.75)
			upper := time.Duration(float64(lead) * 1.25)
			if until <= lower || until >= upper {
				continue
			}
			kind := KindForLead(lead)
			if history.Contains(appt.ID, kind) {
				continue
			}
			due = append(due, DueReminder{Appointment: appt, Kind: kind, Lead: lead})
		}
	}
	return due
}
