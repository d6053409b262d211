package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Date is a calendar date. The embedded time is always midnight UTC so
// comparisons never depend on time of day or zone.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths moves by n months, clamping the day to the end of the target
// month (Mar 31 - 1 month = Feb 28/29).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Time.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// DateRange is an inclusive [From, To] range of calendar dates.
type DateRange struct {
	From Date
	To   Date
}

// DefaultReportRange is the last month up to and including today.
func DefaultReportRange(today Date) DateRange {
	return DateRange{From: today.AddMonths(-1), To: today}
}

// Contains reports whether d falls inside the range, both ends included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}
