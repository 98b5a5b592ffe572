package business

import (
	"errors"
	"strings"
	"time"
)

// Status constants for the business lifecycle.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("business name cannot be empty")
	ErrInvalidTimezone = errors.New("timezone must be a valid IANA name")
)

// Business is a tenant: a gym or club whose groups and athletes are
// tracked independently of every other tenant.
type Business struct {
	ID        string
	Name      string
	Timezone  string // IANA name, e.g. "America/New_York"; empty means UTC
	Message   string // markdown shown to athletes on check-in, embedded in emails
	Status    string
	CreatedAt time.Time
}

// Validate checks if the Business has valid data.
// PRE: Business struct is populated
// POST: Returns nil if valid, error otherwise
func (b *Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Timezone != "" {
		if _, err := time.LoadLocation(b.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// TimezoneOrUTC returns the configured timezone name, defaulting to "UTC"
// when none is set. It never fails.
func (b *Business) TimezoneOrUTC() string {
	if strings.TrimSpace(b.Timezone) == "" {
		return "UTC"
	}
	return b.Timezone
}

// Location resolves the business timezone to a *time.Location.
// All local-time arithmetic for one report must use this single location;
// callers resolve it once per request, never per row.
// PRE: Timezone is empty or a valid IANA name
// POST: Returns the location, or UTC with an error for malformed names
func (b *Business) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.TimezoneOrUTC())
	if err != nil {
		return time.UTC, ErrInvalidTimezone
	}
	return loc, nil
}
