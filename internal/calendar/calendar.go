// Package calendar handles the YYYY-MM-DD date strings orders are keyed by.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

const layout = "2006-01-02"

var ErrInvalidDate = errors.New("calendar: invalid date, want YYYY-MM-DD")

// ParseDate parses s as a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(layout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string { return t.Format(layout) }

// DisplayDate renders s as "January 2, 2024". Unparsable input comes back
// unchanged.
func DisplayDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("January 2, 2006")
}
