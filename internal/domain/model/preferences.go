package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateFormat is returned for a date format index outside 0..4.
var ErrInvalidDateFormat = errors.New("date format must be between 0 and 4")

// DateFormat selects how award and unlock timestamps are displayed.
type DateFormat int

const (
	DateFormatISO      DateFormat = iota // 2024-01-31
	DateFormatUSSlash                    // 01/31/2024
	DateFormatEUSlash                    // 31/01/2024
	DateFormatUSDash                     // 01-31-2024
	DateFormatEUDash                     // 31-01-2024
)

// Valid reports whether f is one of the known formats.
func (f DateFormat) Valid() bool {
	return f >= DateFormatISO && f <= DateFormatEUDash
}

// Format renders the UTC calendar date of t. Unknown formats fall back to ISO.
func (f DateFormat) Format(t time.Time) string {
	y, m, d := t.UTC().Date()
	switch f {
	case DateFormatUSSlash:
		return fmt.Sprintf("%02d/%02d/%04d", m, d, y)
	case DateFormatEUSlash:
		return fmt.Sprintf("%02d/%02d/%04d", d, m, y)
	case DateFormatUSDash:
		return fmt.Sprintf("%02d-%02d-%04d", m, d, y)
	case DateFormatEUDash:
		return fmt.Sprintf("%02d-%02d-%04d", d, m, y)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	}
}

// Preferences are per-installation display settings.
type Preferences struct {
	DateFormat DateFormat `json:"dateFormat"`
}

// DefaultPreferences returns the values written on first use.
func DefaultPreferences() Preferences {
	return Preferences{DateFormat: DateFormatISO}
}
