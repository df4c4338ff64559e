package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a wall-clock value like "09:30" or "9:5" into minutes
// since midnight. Stored values are normalized with FormatClock before
// comparison, so lenient single-digit input is accepted here.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: missing ':'", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad hour", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("clock %q: bad minute", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q: out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as canonical "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
