package availability

import (
	"testing"
	"time"
)

func weekdaySchedule() Schedule {
	weekly := NewWeeklyAvailability()
	weekly[time.Wednesday] = []TimeRange{{Start: 9 * 60, End: 12 * 60}, {Start: 14 * 60, End: 17 * 60}}
	return Schedule{Active: true, Weekly: weekly, Overrides: map[string][]TimeRange{}}
}

func TestRangesFor_Weekday(t *testing.T) {
	s := weekdaySchedule()
	wed := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	ranges := s.RangesFor(wed)
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(ranges))
	}
	if ranges[0].Start != 9*60 || ranges[1].End != 17*60 {
		t.Fatalf("unexpected ranges: %+v", ranges)
	}

	thu := wed.AddDate(0, 0, 1)
	if got := s.RangesFor(thu); len(got) != 0 {
		t.Fatalf("expected no ranges on thursday, got %+v", got)
	}
}

func TestRangesFor_OverrideReplaces(t *testing.T) {
	s := weekdaySchedule()
	wed := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	s.Overrides[wed.Format(DateLayout)] = []TimeRange{{Start: 10 * 60, End: 11 * 60}}

	ranges := s.RangesFor(wed)
	if len(ranges) != 1 {
		t.Fatalf("expected override to replace weekly ranges, got %+v", ranges)
	}
	if ranges[0].Start != 10*60 || ranges[0].End != 11*60 {
		t.Fatalf("unexpected override range: %+v", ranges[0])
	}
}

func TestRangesFor_EmptyOverrideMeansClosed(t *testing.T) {
	s := weekdaySchedule()
	wed := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	s.Overrides[wed.Format(DateLayout)] = []TimeRange{}

	if got := s.RangesFor(wed); len(got) != 0 {
		t.Fatalf("empty override should close the day, got %+v", got)
	}
}

func TestRangesFor_InactivePhysician(t *testing.T) {
	s := weekdaySchedule()
	s.Active = false
	wed := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

	if got := s.RangesFor(wed); got != nil {
		t.Fatalf("inactive physician should yield nothing, got %+v", got)
	}
}
