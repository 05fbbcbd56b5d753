package domain

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"08:30:00", TimeOfDay{8, 30, 0}},
		{"08:30", TimeOfDay{8, 30, 0}},
		{"23:59:59", TimeOfDay{23, 59, 59}},
		{"00:00:00", TimeOfDay{0, 0, 0}},
		{" 07:15 ", TimeOfDay{7, 15, 0}},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseTimeOfDay(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseTimeOfDayRejectsOutOfRange(t *testing.T) {
	for _, s := range []string{"24:00:00", "12:60:00", "12:00:60", "-1:00", "banana", "12", "1:2:3:4", ""} {
		if _, err := ParseTimeOfDay(s); err == nil {
			t.Fatalf("ParseTimeOfDay(%q): expected error", s)
		}
	}
}

func TestTimeOfDayStringIsCanonical(t *testing.T) {
	got := TimeOfDay{8, 30, 0}.String()
	if got != "08:30:00" {
		t.Fatalf("String() = %q, want %q", got, "08:30:00")
	}
	// canonical form must round-trip through the parser
	back, err := ParseTimeOfDay(got)
	if err != nil || back != (TimeOfDay{8, 30, 0}) {
		t.Fatalf("round trip failed: %v %v", back, err)
	}
}
