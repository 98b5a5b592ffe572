package attendance

import (
	"time"

	"rollcall/internal/domain/checkin"
	"rollcall/internal/domain/schedule"
)

// Status values for one athlete on one local calendar date.
const (
	StatusOnTime  = "on-time"
	StatusLate    = "late"
	StatusMissing = "missing"
)

// Record is the classification of one (athlete, local date) pair. It is
// derived on every request and never persisted. CheckInTime and
// ScheduledTime are 12-hour display strings; classification compares
// 24-hour wall-clock values and is never influenced by formatting.
type Record struct {
	Date          string `json:"date"` // YYYY-MM-DD, local
	Day           string `json:"day"`  // lowercase weekday name
	Status        string `json:"status"`
	CheckInTime   string `json:"checkInTime,omitempty"`
	ScheduledTime string `json:"scheduledTime,omitempty"`
}

// Classify decides the status of one athlete on one local calendar date.
//
// date must be a local midnight in loc. checkins are the athlete's rows
// for the whole reporting window, chronological. Rules:
//   - no check-in on the date        -> missing
//   - check-in, day unscheduled      -> on-time (no expectation to violate)
//   - check-in, day scheduled        -> on-time iff local HH:MM <= scheduled
//
// The comparison is lexicographic on zero-padded HH:MM, equivalent to
// numeric time-of-day order; equality counts as on-time and there is no
// grace period.
//
// Tie-break policy: when an athlete checked in more than once on the
// same local date, the earliest check-in of that day determines status.
func Classify(date time.Time, idx schedule.Index, checkins []checkin.CheckIn, loc *time.Location) Record {
	day := schedule.DayName(date.Weekday())
	dateStr := date.Format("2006-01-02")
	scheduled, hasSchedule := idx.StartFor(day)

	rec := Record{Date: dateStr, Day: day}
	if hasSchedule {
		rec.ScheduledTime = displayTime(scheduled)
	}

	ci, ok := pickDayCheckIn(checkins, dateStr, loc)
	if !ok {
		rec.Status = StatusMissing
		return rec
	}

	local := ci.CreatedAt.In(loc)
	rec.CheckInTime = local.Format("03:04 PM")

	if !hasSchedule || local.Format("15:04") <= scheduled {
		rec.Status = StatusOnTime
	} else {
		rec.Status = StatusLate
	}
	return rec
}

// pickDayCheckIn returns the earliest check-in that falls on the given
// local date. checkins are chronological, so the first match wins.
func pickDayCheckIn(checkins []checkin.CheckIn, dateStr string, loc *time.Location) (checkin.CheckIn, bool) {
	for _, ci := range checkins {
		if ci.LocalDate(loc) == dateStr {
			return ci, true
		}
	}
	return checkin.CheckIn{}, false
}

// displayTime converts an HH:MM wall-clock string into the 12-hour form
// used by report payloads. Unparseable values pass through untouched.
func displayTime(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("03:04 PM")
}
