package core

import (
	"testing"
	"time"
)

func TestISOTimestamp(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"2024-05-01", "2024-05-01T00:00:00.000Z", true},
		{"2024-05-01T10:30:00Z", "2024-05-01T10:30:00.000Z", true},
		{"2024-05-01T10:30:00+02:00", "2024-05-01T08:30:00.000Z", true},
		{"2024-05-01T10:30:00.1234567", "2024-05-01T10:30:00.123Z", true},
		{"", "", false},
		{"01/05/2024", "", false},
	}
	for _, tc := range cases {
		got, err := ISOTimestamp(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestCalendarDate(t *testing.T) {
	got, err := CalendarDate("2024-03-09T23:15:00.000Z")
	if err != nil || got != "2024-03-09" {
		t.Fatalf("unexpected %q err=%v", got, err)
	}
	if got := Today(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)); got != "2024-12-31" {
		t.Fatalf("unexpected today %q", got)
	}
}

func TestFormatMonthLabel(t *testing.T) {
	cases := map[string]string{
		"2024-03": "Mar 2024",
		"2024-01": "Jan 2024",
		"2023-12": "Dec 2023",
		"garbage": "garbage",
		"2024-13": "2024-13",
	}
	for in, want := range cases {
		if got := FormatMonthLabel(in); got != want {
			t.Fatalf("%q expected %q, got %q", in, want, got)
		}
	}
}
