package availability

import "time"

// TimeRange is a recurring wall-clock interval [Start, End) in minutes since
// midnight. It carries no date; the caller binds it to a calendar date.
type TimeRange struct {
	Start int
	End   int
}

func (r TimeRange) Valid() bool {
	return r.Start >= 0 && r.End <= 24*60 && r.Start < r.End
}

// WeeklyAvailability maps every weekday to its ordered recurring ranges.
// All seven keys are always present; a day with no ranges is an empty slice.
type WeeklyAvailability map[time.Weekday][]TimeRange

func NewWeeklyAvailability() WeeklyAvailability {
	w := make(WeeklyAvailability, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		w[d] = nil
	}
	return w
}

const DateLayout = "2006-01-02"

// Schedule is one physician's bookable hours: an active flag, the recurring
// weekly ranges, and per-date overrides keyed by DateLayout strings. An
// override present with zero ranges means the physician is closed that day,
// which is distinct from having no override at all.
type Schedule struct {
	Active    bool
	Weekly    WeeklyAvailability
	Overrides map[string][]TimeRange
}

// RangesFor resolves the ranges in effect on date. Overrides replace the
// weekday's recurring ranges verbatim; they are never merged. An inactive
// physician resolves to nothing regardless of stored ranges.
func (s Schedule) RangesFor(date time.Time) []TimeRange {
	if !s.Active {
		return nil
	}
	if ranges, ok := s.Overrides[date.Format(DateLayout)]; ok {
		return ranges
	}
	return s.Weekly[date.Weekday()]
}
