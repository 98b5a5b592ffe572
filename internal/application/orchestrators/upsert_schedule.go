package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rollcall/internal/domain/group"
	"rollcall/internal/domain/schedule"
)

// ErrGroupNotOwned is returned when a schedule targets a group outside
// the caller's business.
var ErrGroupNotOwned = errors.New("group does not belong to this business")

// ScheduleGroupStore resolves group ownership for schedule writes.
type ScheduleGroupStore interface {
	GetByID(ctx context.Context, id string) (group.AthleteGroup, error)
}

// ScheduleStore defines the schedule persistence used by the upsert.
type ScheduleStore interface {
	GetByGroupAndDay(ctx context.Context, groupID, day string) (schedule.TeamSchedule, error)
	Save(ctx context.Context, s schedule.TeamSchedule) error
	Delete(ctx context.Context, id string) error
}

// UpsertScheduleInput carries one weekday slot for a group.
type UpsertScheduleInput struct {
	BusinessID string
	GroupID    string
	Day        string
	StartTime  string // HH:MM
	EndTime    string // HH:MM
}

// UpsertScheduleDeps holds dependencies for UpsertSchedule.
type UpsertScheduleDeps struct {
	GroupStore    ScheduleGroupStore
	ScheduleStore ScheduleStore
	GenerateID    func() string
}

// ExecuteUpsertSchedule creates or replaces the schedule row for one
// (group, weekday) pair.
// PRE: the group belongs to the caller's business
// POST: exactly one row exists for the pair, carrying the new times
// INVARIANT: a group never has two rows for the same weekday
func ExecuteUpsertSchedule(ctx context.Context, input UpsertScheduleInput, deps UpsertScheduleDeps) (schedule.TeamSchedule, error) {
	g, err := deps.GroupStore.GetByID(ctx, input.GroupID)
	if err != nil {
		return schedule.TeamSchedule{}, fmt.Errorf("group lookup: %w", err)
	}
	if g.BusinessID != input.BusinessID {
		return schedule.TeamSchedule{}, ErrGroupNotOwned
	}

	s, err := deps.ScheduleStore.GetByGroupAndDay(ctx, input.GroupID, input.Day)
	if err != nil {
		s = schedule.TeamSchedule{
			ID:      deps.GenerateID(),
			GroupID: input.GroupID,
			Day:     input.Day,
		}
	}
	s.StartTime = input.StartTime
	s.EndTime = input.EndTime

	if err := s.Validate(); err != nil {
		return schedule.TeamSchedule{}, err
	}
	if err := deps.ScheduleStore.Save(ctx, s); err != nil {
		return schedule.TeamSchedule{}, err
	}

	slog.Info("schedule_event", "event", "schedule_upserted", "group_id", input.GroupID, "day", s.Day)
	return s, nil
}

// ExecuteDeleteSchedule removes one weekday slot, returning the day to
// the unscheduled state.
func ExecuteDeleteSchedule(ctx context.Context, businessID, groupID, day string, deps UpsertScheduleDeps) error {
	g, err := deps.GroupStore.GetByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("group lookup: %w", err)
	}
	if g.BusinessID != businessID {
		return ErrGroupNotOwned
	}

	s, err := deps.ScheduleStore.GetByGroupAndDay(ctx, groupID, day)
	if err != nil {
		return nil
	}
	if err := deps.ScheduleStore.Delete(ctx, s.ID); err != nil {
		return err
	}

	slog.Info("schedule_event", "event", "schedule_deleted", "group_id", groupID, "day", day)
	return nil
}
