package athlete

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("athlete name cannot be empty")
	ErrEmptyPIN        = errors.New("athlete PIN cannot be empty")
	ErrEmptyBusinessID = errors.New("athlete must belong to a business")
)

// Athlete is a member of one or more groups. The PIN identifies the
// athlete at the kiosk and is unique within a business, not globally.
type Athlete struct {
	ID          string
	BusinessID  string
	Name        string
	Email       string
	PIN         string
	DateOfBirth string // YYYY-MM-DD, optional
	Description string
	Active      bool
	CreatedAt   time.Time
}

// Validate checks if the Athlete has valid data.
// PRE: Athlete struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Athlete) Validate() error {
	if a.BusinessID == "" {
		return ErrEmptyBusinessID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(a.PIN) == "" {
		return ErrEmptyPIN
	}
	return nil
}
