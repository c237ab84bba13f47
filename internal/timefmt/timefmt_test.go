package timefmt

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("WIB", 7*3600)

	for _, in := range []string{"25-12-2026", "25/12/2026", "2026-12-25", "2026/12/25", "  25-12-2026  "} {
		got, err := ParseDate(in, loc)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		want := time.Date(2026, 12, 25, 23, 59, 59, 0, loc)
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want end of day %v", in, got, want)
		}
	}

	for _, in := range []string{"", "besok", "32-01-2026", "25-13-2026", "25.12.2026"} {
		if _, err := ParseDate(in, loc); !errors.Is(err, ErrBadDate) {
			t.Errorf("ParseDate(%q) err = %v, want ErrBadDate", in, err)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("WIB", 7*3600)
	now := time.Date(2026, 5, 1, 22, 30, 0, 0, loc)

	cases := []struct {
		target time.Time
		want   int
	}{
		// Calendar days, not 24h blocks: 90 minutes later but past
		// midnight counts as tomorrow.
		{time.Date(2026, 5, 2, 0, 0, 1, 0, loc), 1},
		{time.Date(2026, 5, 1, 23, 59, 59, 0, loc), 0},
		{time.Date(2026, 5, 8, 10, 0, 0, 0, loc), 7},
		{time.Date(2026, 4, 29, 10, 0, 0, 0, loc), -2},
	}
	for _, c := range cases {
		if got := DaysUntil(now, c.target, loc); got != c.want {
			t.Errorf("DaysUntil(%v) = %d, want %d", c.target, got, c.want)
		}
	}
}

func TestRelativeLabel(t *testing.T) {
	t.Parallel()
	cases := map[int]string{
		0:  "Hari ini",
		1:  "Besok",
		2:  "Lusa",
		5:  "5 hari lagi",
		-3: "Lewat 3 hari",
	}
	for days, want := range cases {
		if got := RelativeLabel(days); got != want {
			t.Errorf("RelativeLabel(%d) = %q, want %q", days, got, want)
		}
	}
}

func TestWeekdayName(t *testing.T) {
	t.Parallel()
	loc := time.UTC
	// 2026-05-01 is a Friday.
	if got := WeekdayName(time.Date(2026, 5, 1, 12, 0, 0, 0, loc), loc); got != "jumat" {
		t.Errorf("WeekdayName = %q, want jumat", got)
	}

	for _, ok := range []string{"senin", "MINGGU", " sabtu "} {
		if !IsWeekdayName(ok) {
			t.Errorf("IsWeekdayName(%q) = false, want true", ok)
		}
	}
	if IsWeekdayName("monday") {
		t.Error("IsWeekdayName(monday) should be false")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	if got := Truncate("pendek", 10); got != "pendek" {
		t.Errorf("short string should pass through, got %q", got)
	}
	if got := Truncate("abcdefghij", 5); got != "abcde..." {
		t.Errorf("Truncate = %q, want abcde...", got)
	}
	// Multi-byte runes must not be split.
	if got := Truncate("ééééé", 3); got != "ééé..." {
		t.Errorf("Truncate over runes = %q, want ééé...", got)
	}
}
