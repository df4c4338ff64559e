package booking

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinisched/clinisched/libs/outbox"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/availability"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/storage"
)

const (
	EventAppointmentCreated   = "scheduling.appointment.created.v1"
	EventAppointmentScheduled = "scheduling.appointment.scheduled.v1"
	EventAppointmentCancelled = "scheduling.appointment.cancelled.v1"
)

// Service owns every appointment mutation. Each operation runs in a single
// transaction that re-validates the slot at write time; the in-process
// conflict check is a pre-filter for friendlier errors, the database
// constraints are the actual guarantee.
type Service struct {
	physicians   *storage.PhysicianRepository
	appointments *storage.AppointmentRepository
	outboxRepo   *outbox.Repository
	logger       *slog.Logger
}

func NewService(physicians *storage.PhysicianRepository, appointments *storage.AppointmentRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *Service {
	return &Service{
		physicians:   physicians,
		appointments: appointments,
		outboxRepo:   outboxRepo,
		logger:       logger,
	}
}

type CreateInput struct {
	PatientID    string
	PatientName  string
	PatientEmail string
	PatientPhone string
	PhysicianID  string
	Reason       string
	VisitDate    string
	StartClock   string
	EndClock     string
	IsVirtual    bool
	MeetingLink  string
	// Confirm books the slot as scheduled immediately; otherwise the
	// appointment is created as a pending hold.
	Confirm bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Appointment, error) {
	date, err := time.ParseInLocation(availability.DateLayout, in.VisitDate, time.UTC)
	if err != nil {
		return model.Appointment{}, ErrInvalidTimeRange
	}
	startMin, err := availability.ParseClock(in.StartClock)
	if err != nil {
		return model.Appointment{}, ErrInvalidTimeRange
	}
	endMin, err := availability.ParseClock(in.EndClock)
	if err != nil {
		return model.Appointment{}, ErrInvalidTimeRange
	}
	start := availability.At(date, startMin)
	end := availability.At(date, endMin)
	if err := validateSlot(start, end); err != nil {
		return model.Appointment{}, err
	}

	phys, err := s.physicians.Get(ctx, in.PhysicianID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ErrPhysicianNotFound
		}
		return model.Appointment{}, err
	}
	if phys.Status != model.PhysicianActive {
		return model.Appointment{}, ErrPhysicianInactive
	}

	candidate := availability.Slot{Start: start, End: end}
	if err := s.checkSlotFree(ctx, in.PhysicianID, in.VisitDate, date, candidate, ""); err != nil {
		return model.Appointment{}, err
	}

	status := model.AppointmentPending
	if in.Confirm {
		status = model.AppointmentScheduled
	}
	appt := model.Appointment{
		PatientID:     in.PatientID,
		PatientName:   in.PatientName,
		PatientEmail:  in.PatientEmail,
		PatientPhone:  in.PatientPhone,
		PhysicianID:   in.PhysicianID,
		PhysicianName: phys.Name,
		Reason:        in.Reason,
		VisitDate:     in.VisitDate,
		StartTime:     start,
		EndTime:       end,
		Status:        status,
		IsVirtual:     in.IsVirtual,
		MeetingLink:   in.MeetingLink,
	}
	if !appt.IsVirtual {
		appt.MeetingLink = ""
	}

	tx, err := s.appointments.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := s.appointments.Create(ctx, tx, &appt)
	if err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, ErrSlotConflict
		}
		return model.Appointment{}, err
	}
	appt.ID = id

	if err := s.emitEvent(ctx, tx, EventAppointmentCreated, appt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

type RescheduleInput struct {
	AppointmentID string
	PhysicianID   *string
	VisitDate     *string
	StartClock    *string
	EndClock      *string
	IsVirtual     *bool
	MeetingLink   *string
}

// Reschedule confirms the appointment on a possibly new slot or physician.
// The slot is re-validated against the target physician's day before the
// update commits.
func (s *Service) Reschedule(ctx context.Context, in RescheduleInput) (model.Appointment, error) {
	tx, err := s.appointments.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := s.appointments.GetForUpdate(ctx, tx, in.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}

	change, targetDate, err := s.resolveChange(current, in)
	if err != nil {
		return model.Appointment{}, err
	}

	targetPhysician := current.PhysicianID
	if change.PhysicianID != nil {
		targetPhysician = *change.PhysicianID
		phys, err := s.physicians.Get(ctx, targetPhysician)
		if err != nil {
			if storage.IsNotFound(err) {
				return model.Appointment{}, ErrPhysicianNotFound
			}
			return model.Appointment{}, err
		}
		if phys.Status != model.PhysicianActive {
			return model.Appointment{}, ErrPhysicianInactive
		}
		current.PhysicianName = phys.Name
	}

	updated, err := applyReschedule(current, change)
	if err != nil {
		return model.Appointment{}, err
	}

	candidate := availability.Slot{Start: updated.StartTime, End: updated.EndTime}
	if err := s.checkSlotFree(ctx, targetPhysician, updated.VisitDate, targetDate, candidate, updated.ID); err != nil {
		return model.Appointment{}, err
	}

	if err := s.appointments.Update(ctx, tx, updated); err != nil {
		if storage.IsConflict(err) {
			return model.Appointment{}, ErrSlotConflict
		}
		return model.Appointment{}, err
	}
	if err := s.emitEvent(ctx, tx, EventAppointmentScheduled, updated); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return updated, nil
}

func (s *Service) Cancel(ctx context.Context, appointmentID, reason string) (model.Appointment, error) {
	tx, err := s.appointments.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := s.appointments.GetForUpdate(ctx, tx, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ErrAppointmentNotFound
		}
		return model.Appointment{}, err
	}

	cancelled, err := applyCancel(current, reason, time.Now())
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.appointments.Update(ctx, tx, cancelled); err != nil {
		return model.Appointment{}, err
	}
	if err := s.emitEvent(ctx, tx, EventAppointmentCancelled, cancelled); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return cancelled, nil
}

// AvailableSlots resolves the physician's ranges for date, expands them, and
// filters out slots colliding with live bookings.
func (s *Service) AvailableSlots(ctx context.Context, physicianID, visitDate string, intervalMinutes int) ([]availability.Slot, error) {
	date, err := time.ParseInLocation(availability.DateLayout, visitDate, time.UTC)
	if err != nil {
		return nil, ErrInvalidTimeRange
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}

	schedule, err := s.physicians.Schedule(ctx, physicianID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrPhysicianNotFound
		}
		return nil, err
	}

	candidates := availability.GenerateSlots(schedule.RangesFor(date), date, intervalMinutes)
	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := s.bookedIntervals(ctx, physicianID, visitDate)
	if err != nil {
		return nil, err
	}

	free := make([]availability.Slot, 0, len(candidates))
	for _, c := range candidates {
		if !availability.IsBooked(c, date, existing, "") {
			free = append(free, c)
		}
	}
	return free, nil
}

func (s *Service) resolveChange(current model.Appointment, in RescheduleInput) (RescheduleChange, time.Time, error) {
	visitDate := current.VisitDate
	if in.VisitDate != nil {
		visitDate = *in.VisitDate
	}
	date, err := time.ParseInLocation(availability.DateLayout, visitDate, time.UTC)
	if err != nil {
		return RescheduleChange{}, time.Time{}, ErrInvalidTimeRange
	}

	change := RescheduleChange{
		PhysicianID: in.PhysicianID,
		IsVirtual:   in.IsVirtual,
		MeetingLink: in.MeetingLink,
	}

	if in.VisitDate != nil || in.StartClock != nil || in.EndClock != nil {
		startMin := current.StartTime.UTC().Hour()*60 + current.StartTime.UTC().Minute()
		endMin := current.EndTime.UTC().Hour()*60 + current.EndTime.UTC().Minute()
		if in.StartClock != nil {
			startMin, err = availability.ParseClock(*in.StartClock)
			if err != nil {
				return RescheduleChange{}, time.Time{}, ErrInvalidTimeRange
			}
		}
		if in.EndClock != nil {
			endMin, err = availability.ParseClock(*in.EndClock)
			if err != nil {
				return RescheduleChange{}, time.Time{}, ErrInvalidTimeRange
			}
		}
		start := availability.At(date, startMin)
		end := availability.At(date, endMin)
		change.VisitDate = &visitDate
		change.StartTime = &start
		change.EndTime = &end
	}
	return change, date, nil
}

func (s *Service) checkSlotFree(ctx context.Context, physicianID, visitDate string, date time.Time, candidate availability.Slot, excludeID string) error {
	existing, err := s.bookedIntervals(ctx, physicianID, visitDate)
	if err != nil {
		return err
	}
	if availability.IsBooked(candidate, date, existing, excludeID) {
		return ErrSlotConflict
	}
	return nil
}

func (s *Service) bookedIntervals(ctx context.Context, physicianID, visitDate string) ([]availability.BookedInterval, error) {
	appts, err := s.appointments.ListForPhysicianDay(ctx, physicianID, visitDate)
	if err != nil {
		return nil, err
	}
	intervals := make([]availability.BookedInterval, 0, len(appts))
	for _, a := range appts {
		intervals = append(intervals, availability.BookedInterval{
			AppointmentID: a.ID,
			Start:         a.StartTime,
			End:           a.EndTime,
			Cancelled:     a.Status == model.AppointmentCancelled,
		})
	}
	return intervals, nil
}

func (s *Service) emitEvent(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":      appt.ID,
		"patient_id":          appt.PatientID,
		"patient_name":        appt.PatientName,
		"patient_email":       appt.PatientEmail,
		"patient_phone":       appt.PatientPhone,
		"physician_id":        appt.PhysicianID,
		"physician_name":      appt.PhysicianName,
		"reason":              appt.Reason,
		"visit_date":          appt.VisitDate,
		"start_time":          appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":            appt.EndTime.UTC().Format(time.RFC3339),
		"status":              appt.Status,
		"is_virtual":          appt.IsVirtual,
		"meeting_link":        appt.MeetingLink,
		"cancellation_reason": appt.CancellationReason,
	})
	if err != nil {
		return err
	}
	return s.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}
