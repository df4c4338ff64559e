package availability

import (
	"testing"
	"time"
)

func TestGenerateSlots_FullRanges(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	ranges := []TimeRange{{Start: 9 * 60, End: 11 * 60}}

	slots := GenerateSlots(ranges, date, 30)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(date.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot at 09:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
	if !slots[3].End.Equal(date.Add(11 * time.Hour)) {
		t.Fatalf("expected last slot to end at 11:00, got %s", slots[3].End.Format(time.RFC3339))
	}
	for _, s := range slots {
		if s.End.Sub(s.Start) != 30*time.Minute {
			t.Fatalf("slot %s-%s is not 30 minutes", s.Start, s.End)
		}
	}
}

func TestGenerateSlots_DropsTrailingPartial(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	// 09:00-10:15 with 30-minute interval: 09:45-10:15 fits, 10:15-10:45 does not.
	ranges := []TimeRange{{Start: 9 * 60, End: 10*60 + 15}}

	slots := GenerateSlots(ranges, date, 30)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	last := slots[len(slots)-1]
	if !last.End.Equal(date.Add(10 * time.Hour)) {
		t.Fatalf("trailing partial should be dropped, last slot ends %s", last.End.Format(time.RFC3339))
	}
}

func TestGenerateSlots_EmptyRanges(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	if got := GenerateSlots(nil, date, 30); len(got) != 0 {
		t.Fatalf("expected no slots, got %d", len(got))
	}
}

func TestGenerateSlots_OverlappingRangesNotMerged(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	ranges := []TimeRange{
		{Start: 9 * 60, End: 10 * 60},
		{Start: 9*60 + 30, End: 10*60 + 30},
	}

	slots := GenerateSlots(ranges, date, 30)
	// Ranges are walked independently: 09:00, 09:30 from the first,
	// then 09:30, 10:00 from the second. The duplicate 09:30 survives.
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots including the duplicate, got %d", len(slots))
	}
	if !slots[1].Start.Equal(slots[2].Start) {
		t.Fatalf("expected duplicate 09:30 slot, got %s and %s", slots[1].Start, slots[2].Start)
	}
}

func TestGenerateSlots_SkipsInvalidRange(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	ranges := []TimeRange{
		{Start: 11 * 60, End: 9 * 60},
		{Start: 14 * 60, End: 15 * 60},
	}

	slots := GenerateSlots(ranges, date, 30)
	if len(slots) != 2 {
		t.Fatalf("expected inverted range to be skipped, got %d slots", len(slots))
	}
	if !slots[0].Start.Equal(date.Add(14 * time.Hour)) {
		t.Fatalf("expected first slot at 14:00, got %s", slots[0].Start.Format(time.RFC3339))
	}
}
