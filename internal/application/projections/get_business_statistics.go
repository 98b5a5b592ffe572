package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BusinessStatisticsQuery carries query parameters.
type BusinessStatisticsQuery struct {
	BusinessID string
	Now        time.Time
}

// GroupMonthly is one group's check-in counts for the current year,
// one bucket per calendar month, zero-filled.
type GroupMonthly struct {
	GroupID   string  `json:"groupId"`
	GroupName string  `json:"groupName"`
	Category  string  `json:"category"`
	Monthly   [12]int `json:"monthly"`
}

// RecentCheckin is one of the newest check-ins across the business.
type RecentCheckin struct {
	AthleteID   string `json:"athleteId"`
	AthleteName string `json:"athleteName"`
	Time        string `json:"time"` // RFC3339 UTC
}

// BusinessStatisticsResult carries the query result.
type BusinessStatisticsResult struct {
	Year          int             `json:"year"`
	TotalGroups   int             `json:"totalGroups"`
	TotalAthletes int             `json:"totalAthletes"`
	Groups        []GroupMonthly  `json:"groups"`
	Monthly       [12]int         `json:"monthly"` // business-wide totals
	Recent        []RecentCheckin `json:"recent"`  // newest first, up to 3
}

// BusinessStatisticsDeps holds dependencies for QueryBusinessStatistics.
type BusinessStatisticsDeps struct {
	BusinessStore BusinessStore
	GroupStore    GroupStore
	AthleteStore  AthleteStore
	CheckInStore  CheckInStore
}

// QueryBusinessStatistics aggregates per-group monthly check-in counts
// for the current year plus the business's most recent activity.
// PRE: query.BusinessID is non-empty, query.Now is set
// POST: Returns zero-filled 12-month buckets per group and overall
func QueryBusinessStatistics(ctx context.Context, query BusinessStatisticsQuery, deps BusinessStatisticsDeps) (BusinessStatisticsResult, error) {
	if _, err := deps.BusinessStore.GetByID(ctx, query.BusinessID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BusinessStatisticsResult{}, fmt.Errorf("%w: %s", ErrBusinessNotFound, query.BusinessID)
		}
		return BusinessStatisticsResult{}, fmt.Errorf("load business: %w", err)
	}

	year := query.Now.UTC().Year()
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 23, 59, 59, 999999999, time.UTC)

	groups, err := deps.GroupStore.ListByBusinessID(ctx, query.BusinessID)
	if err != nil {
		return BusinessStatisticsResult{}, err
	}

	result := BusinessStatisticsResult{
		Year:        year,
		TotalGroups: len(groups),
		Groups:      []GroupMonthly{},
		Recent:      []RecentCheckin{},
	}

	for _, g := range groups {
		memberIDs, err := deps.GroupStore.ListMemberIDs(ctx, g.ID)
		if err != nil {
			return BusinessStatisticsResult{}, err
		}
		gm := GroupMonthly{GroupID: g.ID, GroupName: g.Name, Category: g.Category}
		counts, err := deps.CheckInStore.CountByMonth(ctx, memberIDs, yearStart, yearEnd)
		if err != nil {
			return BusinessStatisticsResult{}, err
		}
		for _, c := range counts {
			if c.Year != year {
				continue
			}
			gm.Monthly[int(c.Month)-1] += c.Count
			result.Monthly[int(c.Month)-1] += c.Count
		}
		result.Groups = append(result.Groups, gm)
	}

	athletes, err := deps.AthleteStore.ListByBusinessID(ctx, query.BusinessID)
	if err != nil {
		return BusinessStatisticsResult{}, err
	}
	result.TotalAthletes = len(athletes)
	if len(athletes) == 0 {
		return result, nil
	}

	names := make(map[string]string, len(athletes))
	ids := make([]string, 0, len(athletes))
	for _, a := range athletes {
		names[a.ID] = a.Name
		ids = append(ids, a.ID)
	}

	recent, err := deps.CheckInStore.ListRecent(ctx, ids, 3)
	if err != nil {
		return BusinessStatisticsResult{}, err
	}
	for _, ci := range recent {
		result.Recent = append(result.Recent, RecentCheckin{
			AthleteID:   ci.AthleteID,
			AthleteName: names[ci.AthleteID],
			Time:        ci.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}
