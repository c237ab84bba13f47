// Package timefmt holds the date parsing and relative-day helpers shared by
// the task commands and the reminder scheduler.
package timefmt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for user-entered deadlines, tried in order.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2006/01/02",
}

var ErrBadDate = errors.New("unrecognized date")

// ParseDate parses a user-entered calendar date in the group's timezone.
// The resulting time is the end of that day, so a deadline entered as
// "hari ini" stays valid until midnight.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// DaysUntil counts whole calendar days from now to target, both truncated
// to local midnight. 0 = today, 1 = tomorrow, negative = past.
func DaysUntil(now, target time.Time, loc *time.Location) int {
	a := startOfDay(now.In(loc))
	b := startOfDay(target.In(loc))
	return int(b.Sub(a).Hours() / 24)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RelativeLabel renders a day delta the way the bot speaks about deadlines.
func RelativeLabel(days int) string {
	switch {
	case days == 0:
		return "Hari ini"
	case days == 1:
		return "Besok"
	case days == 2:
		return "Lusa"
	case days < 0:
		return fmt.Sprintf("Lewat %d hari", -days)
	default:
		return fmt.Sprintf("%d hari lagi", days)
	}
}

func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02 January 2006")
}

func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02 January 2006 15:04")
}

// Weekday names in lowercase Indonesian, as used for schedule lookups.
var weekdayNames = [...]string{"minggu", "senin", "selasa", "rabu", "kamis", "jumat", "sabtu"}

func WeekdayName(t time.Time, loc *time.Location) string {
	return weekdayNames[int(t.In(loc).Weekday())]
}

func IsWeekdayName(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range weekdayNames {
		if w == s {
			return true
		}
	}
	return false
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
