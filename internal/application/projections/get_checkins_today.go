package projections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainCheckin "rollcall/internal/domain/checkin"
)

// CheckinsTodayQuery carries query parameters.
type CheckinsTodayQuery struct {
	BusinessID string
	Now        time.Time
}

// CheckinWithAthlete is one check-in row with athlete details attached.
type CheckinWithAthlete struct {
	CheckinID   string `json:"checkinId"`
	AthleteID   string `json:"athleteId"`
	AthleteName string `json:"athleteName"`
	Time        string `json:"time"` // 12-hour local wall-clock
}

// CheckinsTodayResult carries the query result.
type CheckinsTodayResult struct {
	Date      string               `json:"date"` // YYYY-MM-DD local
	Checkins  []CheckinWithAthlete `json:"checkins"`
	TotalSeen int                  `json:"totalSeen"` // distinct athletes
}

// CheckinsTodayDeps holds dependencies for QueryCheckinsToday.
type CheckinsTodayDeps struct {
	BusinessStore BusinessStore
	AthleteStore  AthleteStore
	CheckInStore  CheckInStore
}

// QueryCheckinsToday lists a business's check-ins on the current local
// date, for the kiosk's "who is here" view.
// PRE: query.BusinessID is non-empty, query.Now is set
// POST: Returns today's check-ins with athlete names, oldest first
func QueryCheckinsToday(ctx context.Context, query CheckinsTodayQuery, deps CheckinsTodayDeps) (CheckinsTodayResult, error) {
	biz, err := deps.BusinessStore.GetByID(ctx, query.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return CheckinsTodayResult{}, fmt.Errorf("%w: %s", ErrBusinessNotFound, query.BusinessID)
	}
	if err != nil {
		return CheckinsTodayResult{}, fmt.Errorf("load business: %w", err)
	}
	loc, err := biz.Location()
	if err != nil {
		return CheckinsTodayResult{}, err
	}

	// Anchored on the local calendar day, not a fixed 24 hours: DST
	// transition days are 23 or 25 hours long.
	local := query.Now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)

	athletes, err := deps.AthleteStore.ListByBusinessID(ctx, query.BusinessID)
	if err != nil {
		return CheckinsTodayResult{}, err
	}

	result := CheckinsTodayResult{
		Date:     dayStart.Format("2006-01-02"),
		Checkins: []CheckinWithAthlete{},
	}
	if len(athletes) == 0 {
		return result, nil
	}

	names := make(map[string]string, len(athletes))
	ids := make([]string, 0, len(athletes))
	for _, a := range athletes {
		names[a.ID] = a.Name
		ids = append(ids, a.ID)
	}

	rows, err := deps.CheckInStore.ListByAthleteIDsAndRange(ctx, ids, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return CheckinsTodayResult{}, err
	}

	seen := make(map[string]bool)
	for _, ci := range rows {
		result.Checkins = append(result.Checkins, checkinRow(ci, names[ci.AthleteID], loc))
		seen[ci.AthleteID] = true
	}
	result.TotalSeen = len(seen)
	return result, nil
}

func checkinRow(ci domainCheckin.CheckIn, name string, loc *time.Location) CheckinWithAthlete {
	return CheckinWithAthlete{
		CheckinID:   ci.ID,
		AthleteID:   ci.AthleteID,
		AthleteName: name,
		Time:        ci.CreatedAt.In(loc).Format("03:04 PM"),
	}
}
