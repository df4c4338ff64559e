package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/libs/outbox"
	"github.com/clinisched/clinisched/services/notification-service/internal/consumer"
	"github.com/clinisched/clinisched/services/notification-service/internal/email"
	"github.com/clinisched/clinisched/services/notification-service/internal/sms"
	"github.com/clinisched/clinisched/services/notification-service/internal/storage"
)

const (
	KindCreated   = "created"
	KindCancelled = "cancelled"
	KindReminder  = "reminder"
)

// Event is the union of the appointment event payloads this service consumes.
// Created and cancelled events carry the full appointment; reminder.due events
// carry the reminder kind on top of the appointment fields.
type Event struct {
	AppointmentID      string `json:"appointment_id"`
	PatientID          string `json:"patient_id"`
	PatientName        string `json:"patient_name"`
	PatientEmail       string `json:"patient_email"`
	PatientPhone       string `json:"patient_phone"`
	PhysicianName      string `json:"physician_name"`
	VisitDate          string `json:"visit_date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	Status             string `json:"status"`
	IsVirtual          bool   `json:"is_virtual"`
	MeetingLink        string `json:"meeting_link"`
	Reason             string `json:"reason"`
	CancellationReason string `json:"cancellation_reason"`
	ReminderKind       string `json:"kind"`
}

// Dispatcher turns appointment events into patient-facing messages. Delivery
// failures are recorded and reported on the notification topics; they are
// never pushed back at the producer, whose state transition already committed.
type Dispatcher struct {
	pool          *db.Pool
	notifications *storage.Repository
	outboxRepo    *outbox.Repository
	email         email.Sender
	emailProvider string
	sms           sms.Sender
	logger        *slog.Logger
}

func New(pool *db.Pool, notifications *storage.Repository, outboxRepo *outbox.Repository, emailSender email.Sender, smsSender sms.Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		pool:          pool,
		notifications: notifications,
		outboxRepo:    outboxRepo,
		email:         emailSender,
		emailProvider: "smtp",
		sms:           smsSender,
		logger:        logger,
	}
}

// Handler builds the consumer callback for one event kind.
func (d *Dispatcher) Handler(kind string) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			d.logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.AppointmentID == "" || evt.StartTime == "" {
			d.logger.Error("missing event fields", "topic", msg.Topic)
			return nil
		}
		if _, err := time.Parse(time.RFC3339, evt.StartTime); err != nil {
			d.logger.Error("invalid start_time", "err", err, "topic", msg.Topic)
			return nil
		}

		// A created event for a confirmed booking reads better as a
		// confirmation than a "received" notice.
		if kind == KindCreated && evt.Status == "pending" {
			return d.dispatch(ctx, "pending", evt)
		}
		return d.dispatch(ctx, kind, evt)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, kind string, evt Event) error {
	if recipient := strings.TrimSpace(evt.PatientEmail); recipient != "" {
		subject, body := ComposeEmail(kind, evt)
		status := "sent"
		reason := ""
		if err := d.email.Send(recipient, subject, body); err != nil {
			status = "failed"
			reason = err.Error()
			d.logger.Error("email send failed", "err", err, "appointment_id", evt.AppointmentID)
		}
		if err := d.record(ctx, kind, evt, "email", recipient, status, reason, d.emailProvider); err != nil {
			return err
		}
	}

	if recipient := strings.TrimSpace(evt.PatientPhone); recipient != "" && d.sms != nil {
		body := ComposeSMS(kind, evt)
		status := "sent"
		reason := ""
		if err := d.sms.Send(ctx, recipient, body); err != nil {
			status = "failed"
			reason = err.Error()
			d.logger.Error("sms send failed", "err", err, "appointment_id", evt.AppointmentID)
		}
		if err := d.record(ctx, kind, evt, "sms", recipient, status, reason, d.sms.ProviderID()); err != nil {
			return err
		}
	}
	return nil
}

// record persists the notification log row and stages the sent/failed event
// in one transaction. Returning an error here lets the consumer log and move
// on; the inbox row already claimed the event, so it will not replay.
func (d *Dispatcher) record(ctx context.Context, kind string, evt Event, channel, recipient, status, failureReason, providerID string) error {
	payload := map[string]any{
		"patient_name":   evt.PatientName,
		"physician_name": evt.PhysicianName,
		"start_time":     evt.StartTime,
		"kind":           kind,
	}
	if err := d.notifications.Insert(ctx, storage.Notification{
		AppointmentID: evt.AppointmentID,
		EventType:     kind,
		Channel:       channel,
		Recipient:     recipient,
		Payload:       payload,
		Status:        status,
		FailureReason: failureReason,
	}); err != nil {
		return err
	}

	eventType := "notification.sent.v1"
	body := map[string]any{
		"appointment_id": evt.AppointmentID,
		"channel":        channel,
		"kind":           kind,
		"provider_id":    providerID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	}
	if status == "failed" {
		eventType = "notification.failed.v1"
		body = map[string]any{
			"appointment_id": evt.AppointmentID,
			"channel":        channel,
			"kind":           kind,
			"error_reason":   failureReason,
			"failed_at":      time.Now().UTC().Format(time.RFC3339),
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := d.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   evt.AppointmentID,
		EventType:     eventType,
		Payload:       raw,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
