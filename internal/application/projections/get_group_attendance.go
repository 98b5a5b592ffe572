package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	domainAttendance "rollcall/internal/domain/attendance"
	domainCheckin "rollcall/internal/domain/checkin"
	domainGroup "rollcall/internal/domain/group"
	domainSchedule "rollcall/internal/domain/schedule"
	"rollcall/internal/domain/period"
)

// Lookup errors surfaced to callers. Everything else that goes wrong in
// this projection is a store failure and aborts the whole query: the
// report is all-or-nothing, never partial.
var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrGroupNotFound    = errors.New("group not found")
)

// GroupAttendanceQuery carries query parameters. Exactly one of GroupID
// and Category selects the groups; when Category is used, only the
// oldest-created group of that category is evaluated.
type GroupAttendanceQuery struct {
	BusinessID string
	GroupID    string
	Category   string
	Period     period.Period
	Now        time.Time // injected for deterministic reports
}

// AthleteAttendance is one athlete's day-by-day classification.
type AthleteAttendance struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Attendance []domainAttendance.Record `json:"attendance"`
}

// GroupReport is the rolled-up attendance of one group over the window.
type GroupReport struct {
	GroupID       string              `json:"groupId"`
	GroupName     string              `json:"groupName"`
	Category      string              `json:"category"`
	Timezone      string              `json:"timezone"`
	TotalAthletes int                 `json:"totalAthletes"`
	TotalCheckins int                 `json:"totalCheckins"`
	TotalDays     int                 `json:"totalDays"`
	TotalLate     int                 `json:"totalLate"`
	TotalOnTime   int                 `json:"totalOnTime"`
	TotalMissing  int                 `json:"totalMissing"`
	Percentage    int                 `json:"percentage"`
	Athletes      []AthleteAttendance `json:"athletes"`
}

// GroupAttendanceResult carries the query result.
type GroupAttendanceResult struct {
	Reports []GroupReport
}

// GroupAttendanceDeps holds dependencies for QueryGroupAttendance.
type GroupAttendanceDeps struct {
	BusinessStore BusinessStore
	GroupStore    GroupStore
	AthleteStore  AthleteStore
	CheckInStore  CheckInStore
	ScheduleStore ScheduleStore
}

// QueryGroupAttendance computes the attendance report for a business's
// group over a reporting period. All local-time arithmetic uses the
// business timezone, resolved exactly once per call.
// PRE: query.Period is valid, query.Now is set
// POST: Returns one complete report per evaluated group, or an error
// INVARIANT: totalOnTime+totalLate+totalMissing == totalAthletes*totalDays
func QueryGroupAttendance(ctx context.Context, query GroupAttendanceQuery, deps GroupAttendanceDeps) (GroupAttendanceResult, error) {
	biz, err := deps.BusinessStore.GetByID(ctx, query.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return GroupAttendanceResult{}, fmt.Errorf("%w: %s", ErrBusinessNotFound, query.BusinessID)
	}
	if err != nil {
		return GroupAttendanceResult{}, fmt.Errorf("load business: %w", err)
	}

	loc, err := biz.Location()
	if err != nil {
		return GroupAttendanceResult{}, err
	}

	groups, err := resolveGroups(ctx, query, deps)
	if err != nil {
		return GroupAttendanceResult{}, err
	}

	startUTC, endUTC := query.Period.Window(query.Now, loc)
	dates := query.Period.DateList(query.Now, loc)

	reports := make([]GroupReport, 0, len(groups))
	for _, g := range groups {
		report, err := buildGroupReport(ctx, g, biz.TimezoneOrUTC(), loc, startUTC, endUTC, dates, deps)
		if err != nil {
			return GroupAttendanceResult{}, err
		}
		reports = append(reports, report)
	}

	return GroupAttendanceResult{Reports: reports}, nil
}

// resolveGroups maps the query's group selector to concrete groups. An
// explicit GroupID must exist and belong to the business; a category
// selects the single oldest-created group of that category.
func resolveGroups(ctx context.Context, query GroupAttendanceQuery, deps GroupAttendanceDeps) ([]domainGroup.AthleteGroup, error) {
	if query.GroupID != "" {
		g, err := deps.GroupStore.GetByID(ctx, query.GroupID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, query.GroupID)
		}
		if err != nil {
			return nil, fmt.Errorf("load group: %w", err)
		}
		if g.BusinessID != query.BusinessID {
			return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, query.GroupID)
		}
		return []domainGroup.AthleteGroup{g}, nil
	}

	all, err := deps.GroupStore.ListByBusinessID(ctx, query.BusinessID)
	if err != nil {
		return nil, err
	}
	g, ok := domainGroup.SelectOldestOfCategory(all, query.Category)
	if !ok {
		return nil, fmt.Errorf("%w: no %s group", ErrGroupNotFound, query.Category)
	}
	return []domainGroup.AthleteGroup{g}, nil
}

// buildGroupReport evaluates one group over the window.
func buildGroupReport(
	ctx context.Context,
	g domainGroup.AthleteGroup,
	timezone string,
	loc *time.Location,
	startUTC, endUTC time.Time,
	dates []time.Time,
	deps GroupAttendanceDeps,
) (GroupReport, error) {
	report := GroupReport{
		GroupID:   g.ID,
		GroupName: g.Name,
		Category:  g.Category,
		Timezone:  timezone,
		TotalDays: len(dates),
		Athletes:  []AthleteAttendance{},
	}

	memberIDs, err := deps.GroupStore.ListMemberIDs(ctx, g.ID)
	if err != nil {
		return GroupReport{}, err
	}
	if len(memberIDs) == 0 {
		return report, nil
	}

	athletes, err := deps.AthleteStore.ListByIDs(ctx, memberIDs)
	if err != nil {
		return GroupReport{}, err
	}

	checkins, err := deps.CheckInStore.ListByAthleteIDsAndRange(ctx, memberIDs, startUTC, endUTC)
	if err != nil {
		return GroupReport{}, err
	}

	schedules, err := deps.ScheduleStore.ListByGroupID(ctx, g.ID)
	if err != nil {
		return GroupReport{}, err
	}
	idx := domainSchedule.NewIndex(schedules)

	byAthlete := domainCheckin.PartitionByAthlete(checkins)

	report.TotalAthletes = len(athletes)
	report.TotalCheckins = len(checkins)

	for _, a := range athletes {
		entry := AthleteAttendance{
			ID:         a.ID,
			Name:       a.Name,
			Attendance: make([]domainAttendance.Record, 0, len(dates)),
		}
		for _, date := range dates {
			rec := domainAttendance.Classify(date, idx, byAthlete[a.ID], loc)
			switch rec.Status {
			case domainAttendance.StatusOnTime:
				report.TotalOnTime++
			case domainAttendance.StatusLate:
				report.TotalLate++
			default:
				report.TotalMissing++
			}
			entry.Attendance = append(entry.Attendance, rec)
		}
		report.Athletes = append(report.Athletes, entry)
	}

	report.Percentage = percentage(report.TotalOnTime+report.TotalLate, report.TotalAthletes*report.TotalDays)
	return report, nil
}

// percentage computes round(100*present/total), 0 when total is 0.
func percentage(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(present) / float64(total)))
}
