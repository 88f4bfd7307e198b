package core

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format accepted by every surface.
const DateLayout = "2006-01-02"

// compactDateLayout is how operators tend to type dates ("20250725").
const compactDateLayout = "20060102"

// Date is a calendar day with no time-of-day component.
type Date struct {
	t time.Time
}

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, YYYYMMDD, or a full RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, compactDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, NewInvalidDateError(s, err)
	}
	return NewDate(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return d.t }

// String formats the day as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateLayout) }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// After reports whether d is strictly after u.
func (d Date) After(u Date) bool { return d.t.After(u.t) }

// DaysBetween enumerates from..to inclusive. It returns nil when to precedes from.
func DaysBetween(from, to Date) []Date {
	if from.After(to) {
		return nil
	}
	var days []Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
