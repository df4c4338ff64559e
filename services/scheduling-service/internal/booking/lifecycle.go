package booking

import (
	"time"

	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
)

// DefaultCancellationReason is stored when a cancel request carries no reason.
const DefaultCancellationReason = "Not provided"

func validateSlot(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidTimeRange
	}
	return nil
}

// applyCancel moves the appointment to cancelled. Cancellation is terminal;
// repeating it fails rather than silently succeeding, and the first stored
// reason is never overwritten.
func applyCancel(appt model.Appointment, reason string, now time.Time) (model.Appointment, error) {
	if appt.Status == model.AppointmentCancelled {
		return model.Appointment{}, ErrAlreadyCancelled
	}
	if reason == "" {
		reason = DefaultCancellationReason
	}
	appt.Status = model.AppointmentCancelled
	appt.CancellationReason = reason
	cancelledAt := now.UTC()
	appt.CancelledAt = &cancelledAt
	return appt, nil
}

// RescheduleChange carries the optional rebindings a reschedule may apply.
// Nil fields keep the appointment's current value.
type RescheduleChange struct {
	PhysicianID *string
	VisitDate   *string
	StartTime   *time.Time
	EndTime     *time.Time
	IsVirtual   *bool
	MeetingLink *string
}

// applyReschedule confirms the appointment, rebinding slot, physician, and
// visit type as requested. Moving a virtual appointment back to in-person
// clears the stale meeting link.
func applyReschedule(appt model.Appointment, change RescheduleChange) (model.Appointment, error) {
	if appt.Status == model.AppointmentCancelled {
		return model.Appointment{}, ErrAlreadyCancelled
	}
	if change.PhysicianID != nil {
		appt.PhysicianID = *change.PhysicianID
	}
	if change.VisitDate != nil {
		appt.VisitDate = *change.VisitDate
	}
	if change.StartTime != nil {
		appt.StartTime = *change.StartTime
	}
	if change.EndTime != nil {
		appt.EndTime = *change.EndTime
	}
	if err := validateSlot(appt.StartTime, appt.EndTime); err != nil {
		return model.Appointment{}, err
	}
	if change.IsVirtual != nil {
		wasVirtual := appt.IsVirtual
		appt.IsVirtual = *change.IsVirtual
		if wasVirtual && !appt.IsVirtual {
			appt.MeetingLink = ""
		}
	}
	if change.MeetingLink != nil && appt.IsVirtual {
		appt.MeetingLink = *change.MeetingLink
	}
	appt.Status = model.AppointmentScheduled
	return appt, nil
}
