package booking

import "errors"

var (
	ErrInvalidTimeRange    = errors.New("slot start must be before slot end")
	ErrSlotConflict        = errors.New("time slot already booked")
	ErrPhysicianInactive   = errors.New("physician is not accepting appointments")
	ErrPhysicianNotFound   = errors.New("physician not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlreadyCancelled    = errors.New("appointment is already cancelled")
)
