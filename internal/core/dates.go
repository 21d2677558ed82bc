package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used by forms and filters.
	DateLayout = "2006-01-02"
	// MonthLayout is the trend month key format.
	MonthLayout = "2006-01"

	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ISOTimestamp normalises a calendar date or timestamp to a UTC ISO 8601
// timestamp with millisecond precision, e.g. "2024-05-01T00:00:00.000Z".
func ISOTimestamp(s string) (string, error) {
	t, err := parseDateOrTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(isoLayout), nil
}

// CalendarDate reduces a stored timestamp to its UTC calendar date.
func CalendarDate(s string) (string, error) {
	t, err := parseDateOrTimestamp(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(DateLayout), nil
}

// Today returns the UTC calendar date of now.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

func parseDateOrTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Servers commonly emit timestamps without a zone.
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatMonthLabel turns a "YYYY-MM" key into "Mar 2024". Keys that do not
// parse are returned unchanged.
func FormatMonthLabel(key string) string {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(key))
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
