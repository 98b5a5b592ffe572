package schedule

import (
	"context"

	domain "rollcall/internal/domain/schedule"
)

// Store persists TeamSchedule state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.TeamSchedule, error)

	// GetByGroupAndDay retrieves the single schedule row for one
	// weekday of a group. A group has at most one row per day.
	GetByGroupAndDay(ctx context.Context, groupID, day string) (domain.TeamSchedule, error)

	Save(ctx context.Context, value domain.TeamSchedule) error
	Delete(ctx context.Context, id string) error
	ListByGroupID(ctx context.Context, groupID string) ([]domain.TeamSchedule, error)
}
