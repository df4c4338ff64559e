package reminders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository reads scheduled appointments and owns the reminder_records
// table. It shares the scheduling database; appointments are read-only here.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// ListUpcomingScheduled returns scheduled appointments starting in
// (now, until]. The caller picks until wide enough to cover the largest
// configured lead's upper tolerance.
func (r *Repository) ListUpcomingScheduled(ctx context.Context, tx pgx.Tx, now, until time.Time) ([]Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT a.id, a.patient_id, a.patient_name, a.patient_email, a.patient_phone,
			p.name, a.start_time, a.end_time, a.is_virtual, COALESCE(a.meeting_link, '')
		FROM appointments a
		JOIN physicians p ON p.id = a.physician_id
		WHERE a.status = 'scheduled'
			AND a.start_time > $1
			AND a.start_time <= $2
		ORDER BY a.start_time ASC
	`, now, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID,
			&a.PatientID,
			&a.PatientName,
			&a.PatientEmail,
			&a.PatientPhone,
			&a.PhysicianName,
			&a.StartTime,
			&a.EndTime,
			&a.IsVirtual,
			&a.MeetingLink,
		); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *Repository) LoadHistory(ctx context.Context, tx pgx.Tx, appointmentIDs []string) (History, error) {
	history := History{}
	if len(appointmentIDs) == 0 {
		return history, nil
	}
	rows, err := tx.Query(ctx, `
		SELECT appointment_id, kinds
		FROM reminder_records
		WHERE appointment_id = ANY($1)
	`, appointmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var kinds []string
		if err := rows.Scan(&id, &kinds); err != nil {
			return nil, err
		}
		recorded := make([]Kind, 0, len(kinds))
		for _, k := range kinds {
			recorded = append(recorded, Kind(k))
		}
		history[id] = recorded
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return history, nil
}

// RecordSent appends kind to the appointment's sent set. The conditional
// update makes the append at most once: if another sweep already recorded the
// same kind, no row comes back and ok is false.
func (r *Repository) RecordSent(ctx context.Context, tx pgx.Tx, appointmentID string, kind Kind, now time.Time) (bool, error) {
	var sendCount int
	err := tx.QueryRow(ctx, `
		INSERT INTO reminder_records (appointment_id, kinds, send_count, last_sent_at)
		VALUES ($1, ARRAY[$2], 1, $3)
		ON CONFLICT (appointment_id) DO UPDATE
		SET kinds = reminder_records.kinds || EXCLUDED.kinds,
			send_count = reminder_records.send_count + 1,
			last_sent_at = EXCLUDED.last_sent_at
		WHERE NOT reminder_records.kinds @> EXCLUDED.kinds
		RETURNING send_count
	`, appointmentID, string(kind), now).Scan(&sendCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
