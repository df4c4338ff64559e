package reminders

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/libs/outbox"
)

const EventReminderDue = "reminders.reminder.due.v1"

// Sweeper ticks over upcoming scheduled appointments and stages a due event
// for every eligible reminder. Recording the dispatch and staging the event
// share one transaction, so a reminder is either recorded and staged or
// neither. Two sweepers racing on the same appointment resolve on the
// reminder_records row: the loser records nothing and stages nothing.
type Sweeper struct {
	pool     *db.Pool
	repo     *Repository
	engine   *Engine
	outbox   *outbox.Repository
	logger   *slog.Logger
	interval time.Duration
	horizon  time.Duration
}

type SweeperConfig struct {
	Interval time.Duration
	Leads    []time.Duration
}

func NewSweeper(pool *db.Pool, repo *Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if len(cfg.Leads) == 0 {
		cfg.Leads = []time.Duration{time.Hour}
	}
	var maxLead time.Duration
	for _, lead := range cfg.Leads {
		if lead > maxLead {
			maxLead = lead
		}
	}
	return &Sweeper{
		pool:     pool,
		repo:     repo,
		engine:   NewEngine(cfg.Leads),
		outbox:   outboxRepo,
		logger:   logger,
		interval: cfg.Interval,
		// Upper tolerance is 1.25x the lead; scan a little past it.
		horizon: time.Duration(float64(maxLead)*1.25) + time.Minute,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("reminder sweep failed", "err", err)
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	now := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appts, err := s.repo.ListUpcomingScheduled(ctx, tx, now, now.Add(s.horizon))
	if err != nil {
		return err
	}
	if len(appts) == 0 {
		return tx.Commit(ctx)
	}

	ids := make([]string, 0, len(appts))
	for _, a := range appts {
		ids = append(ids, a.ID)
	}
	history, err := s.repo.LoadHistory(ctx, tx, ids)
	if err != nil {
		return err
	}

	staged := 0
	for _, due := range s.engine.Due(now, appts, history) {
		recorded, err := s.repo.RecordSent(ctx, tx, due.Appointment.ID, due.Kind, now)
		if err != nil {
			return err
		}
		if !recorded {
			continue
		}
		if err := s.stageDueEvent(ctx, tx, due); err != nil {
			return err
		}
		staged++
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if staged > 0 {
		s.logger.Info("reminders staged", "count", staged)
	}
	return nil
}

func (s *Sweeper) stageDueEvent(ctx context.Context, tx pgx.Tx, due DueReminder) error {
	appt := due.Appointment
	payload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"patient_id":     appt.PatientID,
		"patient_name":   appt.PatientName,
		"patient_email":  appt.PatientEmail,
		"patient_phone":  appt.PatientPhone,
		"physician_name": appt.PhysicianName,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		"is_virtual":     appt.IsVirtual,
		"meeting_link":   appt.MeetingLink,
		"kind":           string(due.Kind),
		"lead_minutes":   int(due.Lead.Minutes()),
	})
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     EventReminderDue,
		Payload:       payload,
	})
}
