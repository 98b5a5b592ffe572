package reporting

import (
	"errors"
	"time"
)

// Duration constants for the report cadence.
const (
	DurationWeekly  = "weekly"
	DurationMonthly = "monthly"
)

// Domain errors
var (
	ErrEmptyBusinessID = errors.New("reporting settings must belong to a business")
	ErrInvalidDuration = errors.New("duration must be weekly or monthly")
	ErrEmptyEmail      = errors.New("recipient email cannot be empty")
	ErrInvalidPINLen   = errors.New("pin length must be between 4 and 9")
)

// Settings controls the scheduled attendance report emails and the PIN
// policy for one business.
type Settings struct {
	BusinessID string
	Enabled    bool
	Duration   string // weekly or monthly
	Email      string // recipient of scheduled reports
	PINLength  int
}

// Validate checks if the Settings have valid data.
// PRE: Settings struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Settings) Validate() error {
	if s.BusinessID == "" {
		return ErrEmptyBusinessID
	}
	if s.Duration != DurationWeekly && s.Duration != DurationMonthly {
		return ErrInvalidDuration
	}
	if s.Email == "" {
		return ErrEmptyEmail
	}
	if s.PINLength < 4 || s.PINLength > 9 {
		return ErrInvalidPINLen
	}
	return nil
}

// CadenceDays returns the report interval in days.
func (s *Settings) CadenceDays() int {
	if s.Duration == DurationMonthly {
		return 30
	}
	return 7
}

// Due reports whether a scheduled report should be sent now. The
// cadence is anchored on the business creation date: a report is due
// when a whole positive multiple of the cadence has elapsed, measured
// in calendar days.
// PRE: businessCreatedAt is not after now
// POST: Returns true only on exact cadence multiples
func (s *Settings) Due(businessCreatedAt, now time.Time) bool {
	if !s.Enabled {
		return false
	}
	days := int(now.Sub(businessCreatedAt).Hours() / 24)
	cadence := s.CadenceDays()
	return days >= cadence && days%cadence == 0
}
