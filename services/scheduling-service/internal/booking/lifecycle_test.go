package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
)

func testAppointment() model.Appointment {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	return model.Appointment{
		ID:          "a1",
		PatientID:   "patient-1",
		PhysicianID: "phys-1",
		VisitDate:   "2026-09-02",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		Status:      model.AppointmentScheduled,
	}
}

func TestApplyCancel_DefaultsReason(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	appt, err := applyCancel(testAppointment(), "", now)
	if err != nil {
		t.Fatalf("applyCancel: %v", err)
	}
	if appt.Status != model.AppointmentCancelled {
		t.Fatalf("expected cancelled status, got %q", appt.Status)
	}
	if appt.CancellationReason != "Not provided" {
		t.Fatalf("expected default reason, got %q", appt.CancellationReason)
	}
	if appt.CancelledAt == nil || !appt.CancelledAt.Equal(now) {
		t.Fatalf("expected cancelled_at %s, got %v", now, appt.CancelledAt)
	}
}

func TestApplyCancel_SecondCancelRejected(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	appt, err := applyCancel(testAppointment(), "patient request", now)
	if err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err = applyCancel(appt, "changed my mind", now.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if appt.CancellationReason != "patient request" {
		t.Fatalf("first reason must be preserved, got %q", appt.CancellationReason)
	}
}

func TestApplyReschedule_RebindsSlot(t *testing.T) {
	appt := testAppointment()
	appt.Status = model.AppointmentPending

	newStart := time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(30 * time.Minute)
	newDate := "2026-09-03"

	got, err := applyReschedule(appt, RescheduleChange{
		VisitDate: &newDate,
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	if err != nil {
		t.Fatalf("applyReschedule: %v", err)
	}
	if got.Status != model.AppointmentScheduled {
		t.Fatalf("expected scheduled status, got %q", got.Status)
	}
	if !got.StartTime.Equal(newStart) || got.VisitDate != newDate {
		t.Fatalf("slot not rebound: %+v", got)
	}
}

func TestApplyReschedule_InvalidSlotRejected(t *testing.T) {
	appt := testAppointment()
	badEnd := appt.StartTime.Add(-time.Minute)

	_, err := applyReschedule(appt, RescheduleChange{EndTime: &badEnd})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}

func TestApplyReschedule_VirtualToInPersonClearsLink(t *testing.T) {
	appt := testAppointment()
	appt.IsVirtual = true
	appt.MeetingLink = "https://meet.example.com/abc"

	inPerson := false
	got, err := applyReschedule(appt, RescheduleChange{IsVirtual: &inPerson})
	if err != nil {
		t.Fatalf("applyReschedule: %v", err)
	}
	if got.IsVirtual || got.MeetingLink != "" {
		t.Fatalf("expected meeting link cleared, got %+v", got)
	}
}

func TestApplyReschedule_InPersonToVirtualSetsLink(t *testing.T) {
	appt := testAppointment()
	virtual := true
	link := "https://meet.example.com/xyz"

	got, err := applyReschedule(appt, RescheduleChange{IsVirtual: &virtual, MeetingLink: &link})
	if err != nil {
		t.Fatalf("applyReschedule: %v", err)
	}
	if !got.IsVirtual || got.MeetingLink != link {
		t.Fatalf("expected meeting link set, got %+v", got)
	}
}

func TestApplyReschedule_CancelledAppointmentRejected(t *testing.T) {
	appt := testAppointment()
	appt.Status = model.AppointmentCancelled

	newStart := appt.StartTime.Add(time.Hour)
	_, err := applyReschedule(appt, RescheduleChange{StartTime: &newStart})
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}
