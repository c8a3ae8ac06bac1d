package core

import (
	"fmt"
	"time"
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates year and month and returns the Period.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, NewValidationError("mes", ErrInvalidMonth)
	}
	if year < 1 || year > 9999 {
		return Period{}, NewValidationError("anio", ErrInvalidYear)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the month containing t, read in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Bounds returns the half-open interval [start, end) covering the month in loc:
// the first day at 00:00 up to, but excluding, the first day of the next month.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the month in loc.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	start, end := p.Bounds(loc)
	return !t.Before(start) && t.Before(end)
}

// String renders the period as M/YYYY.
func (p Period) String() string {
	return fmt.Sprintf("%d/%d", int(p.Month), p.Year)
}
