package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinisched/clinisched/libs/db"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/availability"
	"github.com/clinisched/clinisched/services/scheduling-service/internal/model"
)

type PhysicianRepository struct {
	pool   *db.Pool
	logger *slog.Logger
}

func NewPhysicianRepository(pool *db.Pool, logger *slog.Logger) *PhysicianRepository {
	return &PhysicianRepository{pool: pool, logger: logger}
}

// Create inserts the physician and seeds Monday through Friday 09:00-17:00 as
// the starting weekly hours. Admins replace individual weekdays afterwards.
func (r *PhysicianRepository) Create(ctx context.Context, name, specialty string) (model.Physician, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Physician{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var p model.Physician
	err = tx.QueryRow(ctx, `
		INSERT INTO physicians (name, specialty)
		VALUES ($1, $2)
		RETURNING id, name, specialty, status, created_at, updated_at
	`, name, specialty).Scan(&p.ID, &p.Name, &p.Specialty, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Physician{}, err
	}

	for weekday := 1; weekday <= 5; weekday++ {
		_, err = tx.Exec(ctx, `
			INSERT INTO physician_weekly_hours (physician_id, weekday, position, start_clock, end_clock)
			VALUES ($1, $2, 0, '09:00', '17:00')
		`, p.ID, weekday)
		if err != nil {
			return model.Physician{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Physician{}, err
	}
	return p, nil
}

func (r *PhysicianRepository) Get(ctx context.Context, id string) (model.Physician, error) {
	var p model.Physician
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, status, created_at, updated_at
		FROM physicians
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Specialty, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Physician{}, err
	}
	return p, nil
}

func (r *PhysicianRepository) List(ctx context.Context) ([]model.Physician, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, status, created_at, updated_at
		FROM physicians
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var physicians []model.Physician
	for rows.Next() {
		var p model.Physician
		if err := rows.Scan(&p.ID, &p.Name, &p.Specialty, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		physicians = append(physicians, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return physicians, nil
}

func (r *PhysicianRepository) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE physicians
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReplaceWeekday swaps out every stored range for one weekday in a single
// transaction. Clocks are already validated and canonicalized by the caller.
func (r *PhysicianRepository) ReplaceWeekday(ctx context.Context, physicianID string, weekday int, ranges []model.WeeklyHour) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM physician_weekly_hours
		WHERE physician_id = $1 AND weekday = $2
	`, physicianID, weekday)
	if err != nil {
		return err
	}

	for i, h := range ranges {
		_, err = tx.Exec(ctx, `
			INSERT INTO physician_weekly_hours (physician_id, weekday, position, start_clock, end_clock)
			VALUES ($1, $2, $3, $4, $5)
		`, physicianID, weekday, i, h.StartClock, h.EndClock)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PhysicianRepository) UpsertOverride(ctx context.Context, physicianID, date string, ranges []model.OverrideRange) error {
	if ranges == nil {
		ranges = []model.OverrideRange{}
	}
	payload, err := json.Marshal(ranges)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO physician_date_overrides (physician_id, visit_date, ranges)
		VALUES ($1, $2, $3)
		ON CONFLICT (physician_id, visit_date) DO UPDATE SET ranges = EXCLUDED.ranges
	`, physicianID, date, payload)
	return err
}

func (r *PhysicianRepository) DeleteOverride(ctx context.Context, physicianID, date string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM physician_date_overrides
		WHERE physician_id = $1 AND visit_date = $2
	`, physicianID, date)
	return err
}

func (r *PhysicianRepository) ListOverrides(ctx context.Context, physicianID string) ([]model.DateOverride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT visit_date::text, ranges
		FROM physician_date_overrides
		WHERE physician_id = $1
		ORDER BY visit_date ASC
	`, physicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []model.DateOverride
	for rows.Next() {
		var o model.DateOverride
		var raw []byte
		if err := rows.Scan(&o.Date, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &o.Ranges); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return overrides, nil
}

func (r *PhysicianRepository) ListWeeklyHours(ctx context.Context, physicianID string) ([]model.WeeklyHour, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, position, start_clock, end_clock
		FROM physician_weekly_hours
		WHERE physician_id = $1
		ORDER BY weekday ASC, position ASC
	`, physicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []model.WeeklyHour
	for rows.Next() {
		var h model.WeeklyHour
		if err := rows.Scan(&h.Weekday, &h.Position, &h.StartClock, &h.EndClock); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return hours, nil
}

// Schedule loads the physician's full resolved availability. Stored clocks
// that fail to parse are logged and skipped so one bad row cannot make the
// whole day unbookable.
func (r *PhysicianRepository) Schedule(ctx context.Context, physicianID string) (availability.Schedule, error) {
	p, err := r.Get(ctx, physicianID)
	if err != nil {
		return availability.Schedule{}, err
	}

	hours, err := r.ListWeeklyHours(ctx, physicianID)
	if err != nil {
		return availability.Schedule{}, err
	}
	weekly := availability.NewWeeklyAvailability()
	for _, h := range hours {
		rng, ok := r.parseRange(physicianID, h.StartClock, h.EndClock)
		if !ok {
			continue
		}
		day := time.Weekday(h.Weekday)
		weekly[day] = append(weekly[day], rng)
	}

	overrides, err := r.ListOverrides(ctx, physicianID)
	if err != nil {
		return availability.Schedule{}, err
	}
	resolved := make(map[string][]availability.TimeRange, len(overrides))
	for _, o := range overrides {
		ranges := []availability.TimeRange{}
		for _, or := range o.Ranges {
			rng, ok := r.parseRange(physicianID, or.StartClock, or.EndClock)
			if !ok {
				continue
			}
			ranges = append(ranges, rng)
		}
		// An override row with zero surviving ranges still closes the day.
		resolved[o.Date] = ranges
	}

	return availability.Schedule{
		Active:    p.Status == model.PhysicianActive,
		Weekly:    weekly,
		Overrides: resolved,
	}, nil
}

func (r *PhysicianRepository) parseRange(physicianID, startClock, endClock string) (availability.TimeRange, bool) {
	start, err := availability.ParseClock(startClock)
	if err != nil {
		r.logger.Warn("skipping malformed availability clock", "physician_id", physicianID, "clock", startClock, "err", err)
		return availability.TimeRange{}, false
	}
	end, err := availability.ParseClock(endClock)
	if err != nil {
		r.logger.Warn("skipping malformed availability clock", "physician_id", physicianID, "clock", endClock, "err", err)
		return availability.TimeRange{}, false
	}
	rng := availability.TimeRange{Start: start, End: end}
	if !rng.Valid() {
		r.logger.Warn("skipping inverted availability range", "physician_id", physicianID, "start", startClock, "end", endClock)
		return availability.TimeRange{}, false
	}
	return rng, true
}
