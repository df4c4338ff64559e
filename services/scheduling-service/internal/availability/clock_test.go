package availability

import "testing"

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "09:30", want: 570},
		{in: "9:5", want: 545},
		{in: " 17:00 ", want: 1020},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "12", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseClock(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFormatClock_Canonical(t *testing.T) {
	if got := FormatClock(545); got != "09:05" {
		t.Fatalf("FormatClock(545) = %q, want 09:05", got)
	}
	if got := FormatClock(1020); got != "17:00" {
		t.Fatalf("FormatClock(1020) = %q, want 17:00", got)
	}
}
