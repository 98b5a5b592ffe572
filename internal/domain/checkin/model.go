package checkin

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyAthleteID = errors.New("check-in must be associated with an athlete")
	ErrZeroCreatedAt  = errors.New("check-in time must be set")
)

// CheckIn records that an athlete scanned presence at one instant.
// Rows are append-only; CreatedAt is always a UTC instant and is
// converted into a business timezone only at classification time.
type CheckIn struct {
	ID        string
	AthleteID string
	CreatedAt time.Time
}

// Validate checks if the CheckIn has valid data.
// PRE: CheckIn struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (c *CheckIn) Validate() error {
	if c.AthleteID == "" {
		return ErrEmptyAthleteID
	}
	if c.CreatedAt.IsZero() {
		return ErrZeroCreatedAt
	}
	return nil
}

// LocalDate returns the calendar date of the check-in in the given
// location, formatted YYYY-MM-DD.
func (c *CheckIn) LocalDate(loc *time.Location) string {
	return c.CreatedAt.In(loc).Format("2006-01-02")
}

// PartitionByAthlete groups a flat check-in list by athlete ID,
// preserving the input order within each athlete. Callers pass rows
// already sorted ascending by CreatedAt, so each partition stays
// chronological.
func PartitionByAthlete(rows []CheckIn) map[string][]CheckIn {
	byAthlete := make(map[string][]CheckIn)
	for _, row := range rows {
		byAthlete[row.AthleteID] = append(byAthlete[row.AthleteID], row)
	}
	return byAthlete
}
