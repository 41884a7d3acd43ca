// Package dates computes business date keys. The delivery day does not
// start at midnight: transactions recorded before the cutoff hour belong
// to the previous calendar day. Every dashboard grouping uses these keys,
// never the raw calendar date.
package dates

import (
	"fmt"
	"time"
)

const (
	// DefaultTimezone is the civil timezone the business operates in.
	DefaultTimezone = "Asia/Karachi"
	// DefaultCutoffHour ends the business day. A sale at 02:30 counts
	// toward the previous day; one at 03:01 starts the new day.
	DefaultCutoffHour = 3
)

// Engine converts timestamps to business date keys in a fixed civil
// timezone. An Engine is read-only after construction and safe for
// concurrent use.
type Engine struct {
	loc    *time.Location
	cutoff int
}

// New returns an [Engine] for the named timezone and cutoff hour.
func New(timezone string, cutoffHour int) (*Engine, error) {
	if cutoffHour < 0 || cutoffHour > 23 {
		return nil, fmt.Errorf("dates: cutoff hour %d out of range", cutoffHour)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("dates: load timezone %q: %w", timezone, err)
	}
	return &Engine{loc: loc, cutoff: cutoffHour}, nil
}

// MustDefault returns an Engine with [DefaultTimezone] and
// [DefaultCutoffHour]. It panics only if the timezone database is missing
// from the runtime environment.
func MustDefault() *Engine {
	e, err := New(DefaultTimezone, DefaultCutoffHour)
	if err != nil {
		panic(err)
	}
	return e
}

// Key returns the business date key ("2006-01-02") for t.
func (e *Engine) Key(t time.Time) string {
	local := t.In(e.loc)
	if local.Hour() < e.cutoff {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("2006-01-02")
}

// MonthKey returns the business month key ("2006-01") for t. It is always
// the first seven characters of [Engine.Key].
func (e *Engine) MonthKey(t time.Time) string {
	return e.Key(t)[:7]
}

// Weekday returns the weekday of t's business date. Used by the delivery
// schedule: a 02:00 run still serves the previous day's route.
func (e *Engine) Weekday(t time.Time) time.Weekday {
	local := t.In(e.loc)
	if local.Hour() < e.cutoff {
		local = local.AddDate(0, 0, -1)
	}
	return local.Weekday()
}

// Location exposes the engine's timezone for callers that need to render
// local timestamps.
func (e *Engine) Location() *time.Location { return e.loc }
