package availability

import "time"

// Slot is a fixed-length bookable interval [Start, End) bound to a concrete
// calendar date in UTC.
type Slot struct {
	Start time.Time
	End   time.Time
}

// At binds a minute-of-day value to date's calendar day in UTC.
func At(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, time.UTC)
}

// GenerateSlots expands ranges into fixed-length slots on date. Within each
// range the cursor advances by intervalMinutes and a slot is emitted only when
// it fits entirely inside the range; a trailing partial interval is dropped.
// Ranges are walked independently in their stored order, so overlapping
// configured ranges yield overlapping candidate slots. Output is deterministic
// for identical inputs.
func GenerateSlots(ranges []TimeRange, date time.Time, intervalMinutes int) []Slot {
	if intervalMinutes <= 0 {
		return nil
	}
	var slots []Slot
	for _, r := range ranges {
		if !r.Valid() {
			continue
		}
		for cursor := r.Start; cursor+intervalMinutes <= r.End; cursor += intervalMinutes {
			slots = append(slots, Slot{
				Start: At(date, cursor),
				End:   At(date, cursor+intervalMinutes),
			})
		}
	}
	return slots
}
