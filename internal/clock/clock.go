// Package clock makes "now" and the reference calendar day explicit dependencies.
package clock

import (
	"fmt"
	"time"
)

// DefaultTimezone is the reference zone used to decide what "today" means.
const DefaultTimezone = "America/Toronto"

// DayLayout is the format of day keys ("2006-01-02").
const DayLayout = "2006-01-02"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same instant. Tests move it with Set/Advance.
type Fixed struct {
	T time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{T: t} }

func (f *Fixed) Now() time.Time { return f.T }

func (f *Fixed) Set(t time.Time) { f.T = t }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// LoadLocation resolves an IANA zone name. Empty means DefaultTimezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DayKey returns the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}

// DaysBetween counts whole calendar days from day a to day b (both DayLayout).
func DaysBetween(a, b string) (int, error) {
	from, err := time.Parse(DayLayout, a)
	if err != nil {
		return 0, err
	}
	to, err := time.Parse(DayLayout, b)
	if err != nil {
		return 0, err
	}
	return int(to.Sub(from).Hours() / 24), nil
}
