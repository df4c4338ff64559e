package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(patient_id, patient_name, patient_email, patient_phone, physician_id, reason,
			visit_date, start_time, end_time, status, is_virtual, meeting_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''))
		RETURNING id
	`, appt.PatientID, appt.PatientName, appt.PatientEmail, appt.PatientPhone, appt.PhysicianID, appt.Reason,
		appt.VisitDate, appt.StartTime, appt.EndTime, appt.Status, appt.IsVirtual, appt.MeetingLink).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

const appointmentColumns = `
	a.id, a.patient_id, a.patient_name, a.patient_email, a.patient_phone,
	a.physician_id, p.name, a.reason, a.visit_date::text, a.start_time, a.end_time,
	a.status, a.is_virtual, COALESCE(a.meeting_link, ''), COALESCE(a.cancellation_reason, ''),
	a.cancelled_at, a.created_at, a.updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.PatientName,
		&appt.PatientEmail,
		&appt.PatientPhone,
		&appt.PhysicianID,
		&appt.PhysicianName,
		&appt.Reason,
		&appt.VisitDate,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.IsVirtual,
		&appt.MeetingLink,
		&appt.CancellationReason,
		&cancelledAt,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.id = $1
	`, id))
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.id = $1
		FOR UPDATE OF a
	`, id))
}

// Update writes back the mutable lifecycle fields. Used by reschedule and
// cancel after the transition rules have been applied in memory.
func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, appt model.Appointment) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET physician_id = $2,
			visit_date = $3,
			start_time = $4,
			end_time = $5,
			status = $6,
			is_virtual = $7,
			meeting_link = NULLIF($8, ''),
			cancellation_reason = NULLIF($9, ''),
			cancelled_at = $10,
			updated_at = now()
		WHERE id = $1
	`, appt.ID, appt.PhysicianID, appt.VisitDate, appt.StartTime, appt.EndTime,
		appt.Status, appt.IsVirtual, appt.MeetingLink, appt.CancellationReason, appt.CancelledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListForPhysicianDay returns every appointment for the physician on the
// given date, cancelled ones included. The conflict pre-filter decides what
// counts; the query does not.
func (r *AppointmentRepository) ListForPhysicianDay(ctx context.Context, physicianID, visitDate string) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.physician_id = $1 AND a.visit_date = $2
		ORDER BY a.start_time ASC
	`, physicianID, visitDate)
}

func (r *AppointmentRepository) ListForPatient(ctx context.Context, patientID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.patient_id = $1
		ORDER BY a.start_time DESC
		LIMIT $2
	`, patientID, limit)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// IsConflict matches both slot guards: 23505 from the partial unique index on
// (physician_id, visit_date, start_time) and 23P01 from the overlap exclusion
// constraint.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
