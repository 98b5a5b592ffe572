package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Day of week constants
const (
	Monday    = "monday"
	Tuesday   = "tuesday"
	Wednesday = "wednesday"
	Thursday  = "thursday"
	Friday    = "friday"
	Saturday  = "saturday"
	Sunday    = "sunday"
)

// ValidDays contains all valid day values.
var ValidDays = []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Domain errors
var (
	ErrEmptyGroupID   = errors.New("group ID cannot be empty")
	ErrInvalidDay     = errors.New("day must be a valid day of the week")
	ErrEmptyStartTime = errors.New("start time cannot be empty")
	ErrEmptyEndTime   = errors.New("end time cannot be empty")
)

// TeamSchedule is the expected session slot for a group on one weekday.
// A weekday with no row carries no expectation — it is unscheduled, not
// closed. At most one row exists per (group, day).
type TeamSchedule struct {
	ID        string
	GroupID   string
	Day       string // monday, tuesday, etc.
	StartTime string // HH:MM wall-clock in the business timezone
	EndTime   string // HH:MM
}

// Validate checks if the TeamSchedule has valid data.
// PRE: TeamSchedule struct is populated
// POST: Returns nil if valid, error otherwise
func (s *TeamSchedule) Validate() error {
	if strings.TrimSpace(s.GroupID) == "" {
		return ErrEmptyGroupID
	}
	if !isValidDay(s.Day) {
		return ErrInvalidDay
	}
	if strings.TrimSpace(s.StartTime) == "" {
		return ErrEmptyStartTime
	}
	if strings.TrimSpace(s.EndTime) == "" {
		return ErrEmptyEndTime
	}
	if _, err := time.Parse("15:04", s.StartTime); err != nil {
		return fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	if _, err := time.Parse("15:04", s.EndTime); err != nil {
		return fmt.Errorf("invalid end time %q: %w", s.EndTime, err)
	}
	return nil
}

// DayName converts a time.Weekday into the lowercase day constant used
// by schedule rows.
func DayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// Index maps weekday names to expected start times for one group.
type Index struct {
	starts map[string]string
}

// NewIndex builds an Index from a group's schedule rows.
// PRE: rows belong to a single group
// POST: StartFor answers for every day that has a row
func NewIndex(rows []TeamSchedule) Index {
	starts := make(map[string]string, len(rows))
	for _, row := range rows {
		starts[row.Day] = row.StartTime
	}
	return Index{starts: starts}
}

// StartFor returns the expected HH:MM start time for the given day.
// The second return is false when the day is unscheduled.
func (idx Index) StartFor(day string) (string, bool) {
	t, ok := idx.starts[day]
	return t, ok
}

// Len returns the number of scheduled weekdays.
func (idx Index) Len() int {
	return len(idx.starts)
}

func isValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}
