package valuation

import (
	"fmt"
	"time"
)

// Legacy extract date layouts (Brazilian day-first).
const (
	InstantLayout = "02/01/2006 15:04:05"
	DateLayout    = "02/01/2006"
)

// ParseReferenceInstant parses the transaction timestamp from the extract.
// Date-only values are accepted and anchor at midnight.
func ParseReferenceInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrBadReferenceInstant)
	}
	if t, err := time.Parse(InstantLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadReferenceInstant, s)
}

// ParseDate parses a "dd/mm/yyyy" date field.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date in the legacy "dd/mm/yyyy" form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NextFriday returns the first Friday on or after t (t itself when t already
// falls on a Friday). Cashback payouts settle on Fridays.
func NextFriday(t time.Time) time.Time {
	days := (int(time.Friday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, days)
}
