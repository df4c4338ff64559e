package availability

import "time"

// BookedInterval is the slice of an existing appointment the conflict check
// needs: its occupied interval, whether it still counts, and its id so an
// appointment being edited can skip itself.
type BookedInterval struct {
	AppointmentID string
	Start         time.Time
	End           time.Time
	Cancelled     bool
}

func minuteOfDay(t time.Time) int {
	return t.UTC().Hour()*60 + t.UTC().Minute()
}

// IsBooked reports whether candidate collides with any live interval in
// existing on the given date. Cancelled appointments and the appointment named
// by excludeAppointmentID are ignored. Comparison uses half-open semantics on
// minute-of-day values rebound to date, so the candidate's own embedded date
// is irrelevant; callers pass the target date explicitly.
func IsBooked(candidate Slot, date time.Time, existing []BookedInterval, excludeAppointmentID string) bool {
	s1 := minuteOfDay(candidate.Start)
	e1 := minuteOfDay(candidate.End)
	day := date.UTC().Format(DateLayout)

	for _, b := range existing {
		if b.Cancelled {
			continue
		}
		if excludeAppointmentID != "" && b.AppointmentID == excludeAppointmentID {
			continue
		}
		if b.Start.UTC().Format(DateLayout) != day {
			continue
		}
		s2 := minuteOfDay(b.Start)
		e2 := minuteOfDay(b.End)
		// [s1,e1) overlaps [s2,e2) iff s1 < e2 && s2 < e1.
		if s1 < e2 && s2 < e1 {
			return true
		}
	}
	return false
}
