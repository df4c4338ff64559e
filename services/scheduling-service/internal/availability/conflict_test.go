package availability

import (
	"testing"
	"time"
)

func TestIsBooked_Overlap(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)},
	}
	candidate := Slot{Start: date.Add(10*time.Hour + 15*time.Minute), End: date.Add(10*time.Hour + 45*time.Minute)}

	if !IsBooked(candidate, date, existing, "") {
		t.Fatal("expected overlap with 10:00-10:30 booking")
	}
}

func TestIsBooked_CancelledIgnored(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute), Cancelled: true},
	}
	candidate := Slot{Start: date.Add(10*time.Hour + 15*time.Minute), End: date.Add(10*time.Hour + 45*time.Minute)}

	if IsBooked(candidate, date, existing, "") {
		t.Fatal("cancelled appointment must not block the slot")
	}
}

func TestIsBooked_AdjacentSlotsDoNotConflict(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)},
	}
	candidate := Slot{Start: date.Add(10*time.Hour + 30*time.Minute), End: date.Add(11 * time.Hour)}

	if IsBooked(candidate, date, existing, "") {
		t.Fatal("back-to-back slots share an endpoint but must not conflict")
	}
}

func TestIsBooked_ExactDuplicateRejected(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(14 * time.Hour), End: date.Add(14*time.Hour + 30*time.Minute)},
	}
	candidate := Slot{Start: date.Add(14 * time.Hour), End: date.Add(14*time.Hour + 30*time.Minute)}

	if !IsBooked(candidate, date, existing, "") {
		t.Fatal("identical start/end must count as a full conflict")
	}
}

func TestIsBooked_ExcludesOwnAppointment(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)},
	}
	candidate := Slot{Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)}

	if IsBooked(candidate, date, existing, "a1") {
		t.Fatal("an appointment must not conflict with itself while being edited")
	}
}

func TestIsBooked_CandidateDateIgnored(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	otherDay := date.AddDate(0, 0, 7)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)},
	}
	// The candidate carries next week's date but the caller asks about `date`;
	// minute-of-day comparison is rebound to the explicit date.
	candidate := Slot{Start: otherDay.Add(10 * time.Hour), End: otherDay.Add(10*time.Hour + 30*time.Minute)}

	if !IsBooked(candidate, date, existing, "") {
		t.Fatal("conflict must be judged against the explicit date, not the candidate's embedded date")
	}
}

func TestIsBooked_OtherDayBookingIgnored(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	existing := []BookedInterval{
		{AppointmentID: "a1", Start: date.AddDate(0, 0, 1).Add(10 * time.Hour), End: date.AddDate(0, 0, 1).Add(10*time.Hour + 30*time.Minute)},
	}
	candidate := Slot{Start: date.Add(10 * time.Hour), End: date.Add(10*time.Hour + 30*time.Minute)}

	if IsBooked(candidate, date, existing, "") {
		t.Fatal("a booking on another day must not conflict")
	}
}
