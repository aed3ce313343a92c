package core

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for month keys.
const MonthLayout = "2006-01"

var ErrInvalidRange = errors.New("invalid date range: first day after last day")

var monthNamesFR = [12]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// Period is an inclusive range of calendar days.
type Period struct {
	First Date
	Last  Date
}

// NewPeriod returns ErrInvalidRange when first is after last.
func NewPeriod(first, last Date) (Period, error) {
	if first.After(last.Time) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, first.String(), last.String())
	}
	return Period{First: first, Last: last}, nil
}

// MonthPeriod returns the period covering the calendar month of d.
func MonthPeriod(d Date) Period {
	first, last := MonthBounds(d)
	return Period{First: first, Last: last}
}

// Contains reports whether d falls within the period, bounds included.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.First.Time) && !d.After(p.Last.Time)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	if p.First.After(p.Last.Time) {
		return 0
	}
	return int(p.Last.Sub(p.First.Time).Hours()/24) + 1
}

// MonthStart normalizes d to the first day of its month.
func MonthStart(d Date) Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// MonthBounds returns the first and last day of the month containing d.
// Day zero of the following month is the last day of this one, which
// takes care of month lengths and leap years.
func MonthBounds(d Date) (first, last Date) {
	first = MonthStart(d)
	last = Date{Time: time.Date(d.Year(), time.Month(d.Month())+1, 0, 0, 0, 0, 0, time.UTC)}
	return first, last
}

// DaysInMonth returns the number of days of the month containing d.
func DaysInMonth(d Date) int {
	_, last := MonthBounds(d)
	return last.Day()
}

// PrevMonth returns the first day of the month before the one containing d.
func PrevMonth(d Date) Date {
	if d.Month() == 1 {
		return NewDate(d.Year()-1, 12, 1)
	}
	return NewDate(d.Year(), d.Month()-1, 1)
}

// NextMonth returns the first day of the month after the one containing d.
func NextMonth(d Date) Date {
	if d.Month() == 12 {
		return NewDate(d.Year()+1, 1, 1)
	}
	return NewDate(d.Year(), d.Month()+1, 1)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDay, s, err)
	}
	return Date{Time: t}, nil
}

// ParseMonth parses a YYYY-MM string, or a full date which is normalized
// to the first of its month.
func ParseMonth(s string) (Date, error) {
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q", ErrInvalidMonth, s)
	}
	return MonthStart(d), nil
}

// FormatMonthFR renders the month as "Mars 2024".
func FormatMonthFR(d Date) string {
	return fmt.Sprintf("%s %d", monthNamesFR[d.Month()-1], d.Year())
}

// FormatDateFR renders the date as dd/mm/yyyy.
func FormatDateFR(d Date) string {
	return d.Format("02/01/2006")
}
