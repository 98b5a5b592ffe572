package checkin

import (
	"context"
	"time"

	domain "rollcall/internal/domain/checkin"
)

// MonthCount is one month's check-in tally for a set of athletes.
type MonthCount struct {
	Year  int
	Month time.Month
	Count int
}

// Store persists CheckIn state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.CheckIn, error)
	Save(ctx context.Context, value domain.CheckIn) error
	Delete(ctx context.Context, id string) error

	// ListByAthleteIDsAndRange returns the check-ins of the given
	// athletes inside [from, to], ordered by created_at ascending.
	// The ascending order is load-bearing: attendance classification
	// picks the first row of each local date.
	ListByAthleteIDsAndRange(ctx context.Context, athleteIDs []string, from, to time.Time) ([]domain.CheckIn, error)

	// CountByMonth tallies check-ins per calendar month (UTC) for the
	// given athletes inside [from, to].
	CountByMonth(ctx context.Context, athleteIDs []string, from, to time.Time) ([]MonthCount, error)

	// ListRecent returns the newest check-ins of the given athletes.
	ListRecent(ctx context.Context, athleteIDs []string, limit int) ([]domain.CheckIn, error)
}
