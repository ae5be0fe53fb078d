package dates

import (
	"strings"
	"time"
)

// Layout is the calendar-date format used for departure dates, edge dates and
// budget days.
const Layout = "2006-01-02"

func Parse(date string) (time.Time, error) {
	return time.Parse(Layout, strings.TrimSpace(date))
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// AddDays shifts a YYYY-MM-DD date by days calendar days.
func AddDays(date string, days int) (string, error) {
	t, err := Parse(date)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, days)), nil
}

// OnOrAfter reports whether date falls on or after min. Unparseable dates are
// never on or after anything.
func OnOrAfter(date, min string) bool {
	d, err := Parse(date)
	if err != nil {
		return false
	}
	m, err := Parse(min)
	if err != nil {
		return false
	}
	return !d.Before(m)
}

// DayKey is the UTC calendar day t falls on.
func DayKey(t time.Time) string {
	return t.UTC().Format(Layout)
}

// ParseSegmentTime parses the local departure/arrival time of a flight
// segment. Provider times carry no zone, so they are read as wall-clock UTC.
func ParseSegmentTime(value string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		Layout,
	}

	value = strings.TrimSpace(value)
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   value,
		Message: "unable to parse segment time",
	}
}

// SegmentDate returns the calendar date of a segment time, keeping the local
// wall-clock date when the value has an offset.
func SegmentDate(value string) (string, bool) {
	t, err := ParseSegmentTime(value)
	if err != nil {
		return "", false
	}
	return Format(t), true
}
