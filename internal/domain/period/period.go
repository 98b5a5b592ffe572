package period

import (
	"errors"
	"fmt"
	"time"
)

// Period is the reporting window granularity.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Year
)

// ErrInvalidPeriod is returned for unrecognized period tokens.
var ErrInvalidPeriod = errors.New("period must be daily, weekly, monthly or year")

// Parse converts a period token into a Period.
// PRE: token is the raw request value
// POST: Returns the Period, or ErrInvalidPeriod for unknown tokens
func Parse(token string) (Period, error) {
	switch token {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	case "year":
		return Year, nil
	default:
		return Daily, fmt.Errorf("%w: %q", ErrInvalidPeriod, token)
	}
}

// String returns the wire token for the period.
func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Year:
		return "year"
	}
	return "unknown"
}

// Window returns the closed instant range [start, end] for the period,
// computed in loc and returned as instants suitable for querying a
// UTC-stamped store. "weekly" is a trailing 7-day window inclusive of
// today — not a set of calendar-week buckets.
//
// PRE: loc is the business's resolved location
// POST: start is a local midnight, end is local end-of-day today
func (p Period) Window(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	end := endOfDay(local)

	var start time.Time
	switch p {
	case Daily:
		start = startOfDay(local)
	case Weekly:
		start = startOfDay(local.AddDate(0, 0, -6))
	case Monthly:
		start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	case Year:
		start = time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
	}
	return start, end
}

// DateList returns the local midnight of every calendar date in the
// period's window, in order. Daily always yields exactly one date:
// today in loc, regardless of the server's own timezone.
//
// Iteration is by calendar day (AddDate), not 24h steps, so DST
// transitions inside the window cannot skip or repeat a date.
func (p Period) DateList(now time.Time, loc *time.Location) []time.Time {
	start, end := p.Window(now, loc)
	if p == Daily {
		return []time.Time{start}
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, startOfDay(d.In(loc)))
	}
	return dates
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
