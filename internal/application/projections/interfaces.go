package projections

import (
	"context"
	"time"

	checkinStore "rollcall/internal/adapters/storage/checkin"
	domainAthlete "rollcall/internal/domain/athlete"
	domainBusiness "rollcall/internal/domain/business"
	domainCheckin "rollcall/internal/domain/checkin"
	domainGroup "rollcall/internal/domain/group"
	domainSchedule "rollcall/internal/domain/schedule"
)

// BusinessStore interface for business queries.
type BusinessStore interface {
	GetByID(ctx context.Context, id string) (domainBusiness.Business, error)
}

// GroupStore interface for group and membership queries.
type GroupStore interface {
	GetByID(ctx context.Context, id string) (domainGroup.AthleteGroup, error)
	ListByBusinessID(ctx context.Context, businessID string) ([]domainGroup.AthleteGroup, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// AthleteStore interface for athlete queries.
type AthleteStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]domainAthlete.Athlete, error)
	ListByBusinessID(ctx context.Context, businessID string) ([]domainAthlete.Athlete, error)
}

// CheckInStore interface for check-in queries.
type CheckInStore interface {
	ListByAthleteIDsAndRange(ctx context.Context, athleteIDs []string, from, to time.Time) ([]domainCheckin.CheckIn, error)
	CountByMonth(ctx context.Context, athleteIDs []string, from, to time.Time) ([]checkinStore.MonthCount, error)
	ListRecent(ctx context.Context, athleteIDs []string, limit int) ([]domainCheckin.CheckIn, error)
}

// ScheduleStore interface for schedule queries.
type ScheduleStore interface {
	ListByGroupID(ctx context.Context, groupID string) ([]domainSchedule.TeamSchedule, error)
}
