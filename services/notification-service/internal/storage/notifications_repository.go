package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clinisched/clinisched/libs/db"
)

type Notification struct {
	ID            int64
	AppointmentID string
	EventType     string
	Channel       string
	Recipient     string
	Payload       map[string]any
	Status        string
	FailureReason string
	CreatedAt     time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, event_type, channel, recipient, payload, status, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, n.AppointmentID, n.EventType, n.Channel, n.Recipient, payload, n.Status, n.FailureReason)
	return err
}

func (r *Repository) ListRecent(ctx context.Context, appointmentID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, event_type, channel, recipient, payload, status, COALESCE(failure_reason, ''), created_at
		FROM notifications
		WHERE ($1 = '' OR appointment_id = $1)
		ORDER BY id DESC
		LIMIT $2
	`, appointmentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Notification
	for rows.Next() {
		var n Notification
		var raw []byte
		if err := rows.Scan(&n.ID, &n.AppointmentID, &n.EventType, &n.Channel, &n.Recipient, &raw, &n.Status, &n.FailureReason, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &n.Payload); err != nil {
				return nil, err
			}
		}
		items = append(items, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
