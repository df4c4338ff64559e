package model

import "time"

const (
	PhysicianActive   = "active"
	PhysicianInactive = "inactive"
)

type Physician struct {
	ID        string
	Name      string
	Specialty string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WeeklyHour is one stored recurring range: weekday 0 (Sunday) through 6,
// clocks as canonical "HH:MM" strings, position preserving admin entry order.
type WeeklyHour struct {
	Weekday    int
	Position   int
	StartClock string
	EndClock   string
}

// DateOverride replaces the weekday's recurring ranges for one calendar date.
// A stored override with an empty Ranges list means the physician is closed.
type DateOverride struct {
	Date   string
	Ranges []OverrideRange
}

type OverrideRange struct {
	StartClock string `json:"start"`
	EndClock   string `json:"end"`
}
