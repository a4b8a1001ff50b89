// Package dates resolves user-supplied date strings into models.DateQuery values.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/jidai/internal/models"
)

// Layout is one accepted textual date format.
type Layout struct {
	// Name is the user-facing spelling of the format, e.g. "DD-MM-YYYY".
	Name string
	// GoLayout is the time.Parse layout.
	GoLayout string
	// HasYear is false for formats that omit the year; the current year is substituted.
	HasYear bool
}

// Accepted layouts. Day and month accept one or two digits.
var (
	DayMonthYear      = Layout{Name: "DD-MM-YYYY", GoLayout: "2-1-2006", HasYear: true}
	DayMonthShortYear = Layout{Name: "DD-MM-YY", GoLayout: "2-1-06", HasYear: true}
	DayMonth          = Layout{Name: "DD-MM", GoLayout: "2-1"}

	SlashDayMonthShortYear = Layout{Name: "DD/MM/YY", GoLayout: "2/1/06", HasYear: true}
	SlashDayMonth          = Layout{Name: "DD/MM", GoLayout: "2/1"}

	ISODate = Layout{Name: "YYYY-MM-DD", GoLayout: "2006-1-2", HasYear: true}
)

// Resolver parses date strings against an ordered list of layouts. The first match wins.
type Resolver struct {
	layouts []Layout
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used to fill in an omitted year.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver returns a resolver trying layouts in order.
func NewResolver(layouts []Layout, opts ...Option) *Resolver {
	r := &Resolver{layouts: append([]Layout(nil), layouts...), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default accepts DD-MM-YYYY, DD-MM-YY and DD-MM, in that order.
func Default(opts ...Option) *Resolver {
	return NewResolver([]Layout{DayMonthYear, DayMonthShortYear, DayMonth}, opts...)
}

// ProcessForm accepts DD-MM-YYYY only.
func ProcessForm(opts ...Option) *Resolver {
	return NewResolver([]Layout{DayMonthYear}, opts...)
}

// NewsForm accepts YYYY-MM-DD only.
func NewsForm(opts ...Option) *Resolver {
	return NewResolver([]Layout{ISODate}, opts...)
}

// Chat accepts DD/MM/YY, falling back to DD/MM with the current year.
func Chat(opts ...Option) *Resolver {
	return NewResolver([]Layout{SlashDayMonthShortYear, SlashDayMonth}, opts...)
}

// Formats returns the accepted format names joined with " or ".
func (r *Resolver) Formats() string {
	names := make([]string, len(r.layouts))
	for i, l := range r.layouts {
		names[i] = l.Name
	}
	return strings.Join(names, " or ")
}

// Resolve parses s. It returns an error wrapping models.ErrInvalidDateFormat when no layout matches
// or the matched fields do not name a real calendar day.
func (r *Resolver) Resolve(s string) (models.DateQuery, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DateQuery{}, r.invalid(s)
	}
	for _, l := range r.layouts {
		t, err := time.Parse(l.GoLayout, s)
		if err != nil {
			continue
		}
		if l.HasYear {
			return models.DateQuery{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}, nil
		}
		// time.Parse fills year 0, a leap year; validate against the substituted year.
		q, err := models.NewDateQuery(t.Day(), int(t.Month()), r.now().Year())
		if err != nil {
			return models.DateQuery{}, fmt.Errorf("%w: %v", models.ErrInvalidDateFormat, err)
		}
		q.YearInferred = true
		return q, nil
	}
	return models.DateQuery{}, r.invalid(s)
}

func (r *Resolver) invalid(s string) error {
	return fmt.Errorf("%w: %q does not match %s", models.ErrInvalidDateFormat, s, r.Formats())
}
