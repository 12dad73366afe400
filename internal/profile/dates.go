package profile

import (
	"fmt"
	"strings"
	"time"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// ParseDate accepts YYYY-MM (month picker values) or YYYY-MM-DD. A month value
// resolves to the first day of that month.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("profile: empty date")
	}
	if t, err := time.Parse(dayLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(monthLayout, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("profile: invalid date %q (want YYYY-MM or YYYY-MM-DD)", value)
}

// ValidDate reports whether ParseDate accepts the value.
func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// EndsBefore reports whether end is strictly earlier than start. Unparseable
// values never compare as ordered.
func EndsBefore(start, end string) bool {
	s, err := ParseDate(start)
	if err != nil {
		return false
	}
	e, err := ParseDate(end)
	if err != nil {
		return false
	}
	return e.Before(s)
}

// FormatRange renders "start - end" for summaries, using "Present" for current entries.
func FormatRange(start, end string, current bool) string {
	if start == "" {
		return ""
	}
	if current {
		return start + " - Present"
	}
	if end == "" {
		return start
	}
	return start + " - " + end
}
