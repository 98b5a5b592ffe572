package projections

import (
	"context"
	"errors"
	"testing"
	"time"
)

func statsDeps(t *testing.T) BusinessStatisticsDeps {
	t.Helper()
	deps := fixture(t)
	return BusinessStatisticsDeps{
		BusinessStore: deps.BusinessStore,
		GroupStore:    deps.GroupStore,
		AthleteStore:  deps.AthleteStore,
		CheckInStore:  deps.CheckInStore,
	}
}

// TestQueryBusinessStatistics verifies zero-filled monthly buckets,
// group tallies, and the recent list.
func TestQueryBusinessStatistics(t *testing.T) {
	deps := statsDeps(t)

	result, err := QueryBusinessStatistics(context.Background(), BusinessStatisticsQuery{
		BusinessID: "b1",
		Now:        testNow(),
	}, deps)
	if err != nil {
		t.Fatalf("QueryBusinessStatistics failed: %v", err)
	}

	if result.Year != 2026 {
		t.Errorf("year = %d, want 2026", result.Year)
	}
	if result.TotalGroups != 2 {
		t.Errorf("totalGroups = %d, want 2", result.TotalGroups)
	}
	if result.TotalAthletes != 2 {
		t.Errorf("totalAthletes = %d, want 2", result.TotalAthletes)
	}

	// All four fixture check-ins are in March.
	wantMonthly := [12]int{}
	wantMonthly[time.March-1] = 4
	if result.Monthly != wantMonthly {
		t.Errorf("monthly = %v, want %v", result.Monthly, wantMonthly)
	}

	var seniors *GroupMonthly
	for i := range result.Groups {
		if result.Groups[i].GroupID == "g1" {
			seniors = &result.Groups[i]
		}
	}
	if seniors == nil {
		t.Fatal("missing group g1 in statistics")
	}
	if seniors.Monthly[time.March-1] != 4 {
		t.Errorf("g1 March count = %d, want 4", seniors.Monthly[time.March-1])
	}
	if seniors.Monthly[time.January-1] != 0 {
		t.Errorf("g1 January count = %d, want 0 (zero-filled)", seniors.Monthly[time.January-1])
	}

	if len(result.Recent) != 3 {
		t.Fatalf("got %d recent checkins, want 3", len(result.Recent))
	}
	// Newest fixture row is Ana's Tuesday check-in.
	if result.Recent[0].AthleteName != "Ana" {
		t.Errorf("recent[0] = %q, want Ana", result.Recent[0].AthleteName)
	}
}

// TestQueryBusinessStatistics_UnknownBusiness verifies the lookup error.
func TestQueryBusinessStatistics_UnknownBusiness(t *testing.T) {
	deps := statsDeps(t)

	_, err := QueryBusinessStatistics(context.Background(), BusinessStatisticsQuery{
		BusinessID: "nope",
		Now:        testNow(),
	}, deps)
	if !errors.Is(err, ErrBusinessNotFound) {
		t.Errorf("error = %v, want ErrBusinessNotFound", err)
	}
}

// TestQueryBusinessStatistics_StoreFailureIsNotNotFound verifies that a
// failing business store is surfaced as an internal error.
func TestQueryBusinessStatistics_StoreFailureIsNotNotFound(t *testing.T) {
	deps := statsDeps(t)
	deps.BusinessStore.(*mockBusinessStore).getErr = errors.New("database is locked")

	_, err := QueryBusinessStatistics(context.Background(), BusinessStatisticsQuery{
		BusinessID: "b1",
		Now:        testNow(),
	}, deps)
	if err == nil {
		t.Fatal("expected error when the business store fails")
	}
	if errors.Is(err, ErrBusinessNotFound) {
		t.Errorf("store failure reported as ErrBusinessNotFound: %v", err)
	}
}
