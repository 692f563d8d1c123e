package model

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used by forms, flags and share links.
const DateLayout = "2006-01-02"

var (
	// ErrMissingStartDate is returned when date checking is enabled without a start date.
	ErrMissingStartDate = errors.New("start date is required when date checking is enabled")
	// ErrInvalidDateRange is returned when the end date precedes the start date.
	ErrInvalidDateRange = errors.New("end date is before start date")
)

// DateWindow bounds the qualifying unlock/award timestamps. Start is inclusive.
// End is a calendar date: any timestamp on that day still qualifies, so the
// effective exclusive bound is the midnight after End. A zero Start or End
// leaves that side unbounded.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow builds the window for a run. When checkDate is false the
// window is unbounded. When it is true start must be a concrete date.
func NewDateWindow(checkDate bool, start, end time.Time) (DateWindow, error) {
	if !checkDate {
		return DateWindow{}, nil
	}
	if start.IsZero() {
		return DateWindow{}, ErrMissingStartDate
	}

	w := DateWindow{Start: calendarDay(start)}
	if !end.IsZero() {
		w.End = calendarDay(end)
		if w.End.Before(w.Start) {
			return DateWindow{}, ErrInvalidDateRange
		}
	}
	return w, nil
}

// Contains reports whether t falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Bounded reports whether either side of the window is set.
func (w DateWindow) Bounded() bool {
	return !w.Start.IsZero() || !w.End.IsZero()
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
// An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
