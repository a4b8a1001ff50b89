// Package models defines the core data structures that flow through the interpreter pipeline.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateQuery is a normalized calendar date used to scope a search.
// It is a value type; once resolved it is never mutated.
type DateQuery struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
	// YearInferred is true when the input omitted the year and the current year was used.
	YearInferred bool `json:"year_inferred,omitempty"`
}

// NewDateQuery validates the calendar date and returns a DateQuery.
func NewDateQuery(day, month, year int) (DateQuery, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return DateQuery{}, fmt.Errorf("%02d-%02d-%04d is not a calendar date", day, month, year)
	}
	return DateQuery{Day: day, Month: month, Year: year}, nil
}

// Time returns the date at UTC midnight.
func (d DateQuery) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Format formats the date with a Go time layout.
func (d DateQuery) Format(layout string) string {
	return d.Time().Format(layout)
}

// String returns the date as DD-MM-YYYY.
func (d DateQuery) String() string {
	return d.Format("02-01-2006")
}

// Equal reports whether both values name the same calendar day.
func (d DateQuery) Equal(other DateQuery) bool {
	return d.Day == other.Day && d.Month == other.Month && d.Year == other.Year
}

// Contains reports whether t falls on this date in t's own location.
func (d DateQuery) Contains(t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && int(m) == d.Month && day == d.Day
}

// DayString returns the zero-padded day of month ("05").
func (d DateQuery) DayString() string {
	return fmt.Sprintf("%02d", d.Day)
}

// MonthString returns the zero-padded month ("03").
func (d DateQuery) MonthString() string {
	return fmt.Sprintf("%02d", d.Month)
}

// MentionedIn reports whether text contains both the zero-padded day and month
// of the date as substrings. It is a loose filter: the two numbers need not be adjacent.
func (d DateQuery) MentionedIn(text string) bool {
	return strings.Contains(text, d.DayString()) && strings.Contains(text, d.MonthString())
}
