package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"rollcall/internal/adapters/http/middleware"
	"rollcall/internal/adapters/storage"
	accountStore "rollcall/internal/adapters/storage/account"
	athleteStore "rollcall/internal/adapters/storage/athlete"
	businessStore "rollcall/internal/adapters/storage/business"
	checkinStore "rollcall/internal/adapters/storage/checkin"
	groupStore "rollcall/internal/adapters/storage/group"
	outboxStore "rollcall/internal/adapters/storage/outbox"
	reportingStore "rollcall/internal/adapters/storage/reporting"
	scheduleStore "rollcall/internal/adapters/storage/schedule"
	accountDomain "rollcall/internal/domain/account"
	athleteDomain "rollcall/internal/domain/athlete"
	businessDomain "rollcall/internal/domain/business"
	checkinDomain "rollcall/internal/domain/checkin"
	groupDomain "rollcall/internal/domain/group"
	scheduleDomain "rollcall/internal/domain/schedule"
)

// testNow is a Wednesday evening UTC; the seeded business runs in
// New York where it is still Wednesday afternoon.
var testNow = time.Date(2026, 3, 18, 20, 0, 0, 0, time.UTC)

// setupHandlers wires the package globals against a fresh in-memory
// database and seeds one business with a group, two athletes and a
// Monday schedule.
func setupHandlers(t *testing.T) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}

	stores = &Stores{
		AccountStore:   accountStore.NewSQLiteStore(db),
		BusinessStore:  businessStore.NewSQLiteStore(db),
		GroupStore:     groupStore.NewSQLiteStore(db),
		AthleteStore:   athleteStore.NewSQLiteStore(db),
		CheckInStore:   checkinStore.NewSQLiteStore(db),
		ScheduleStore:  scheduleStore.NewSQLiteStore(db),
		ReportingStore: reportingStore.NewSQLiteStore(db),
		OutboxStore:    outboxStore.NewSQLiteStore(db),
	}
	sessions = middleware.NewSessionStore()
	timeNow = func() time.Time { return testNow }
	t.Cleanup(func() { timeNow = time.Now })

	ctx := context.Background()
	mustSave := func(what string, err error) {
		if err != nil {
			t.Fatalf("seed %s: %v", what, err)
		}
	}

	mustSave("business", stores.BusinessStore.Save(ctx, businessDomain.Business{
		ID: "b-1", Name: "Harbour Gym", Timezone: "America/New_York",
		Message: "See you next session!", Status: businessDomain.StatusActive,
		CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}))
	mustSave("group", stores.GroupStore.Save(ctx, groupDomain.AthleteGroup{
		ID: "g-1", BusinessID: "b-1", Name: "Seniors", Category: groupDomain.CategoryTeam,
		CreatedAt: time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
	}))
	mustSave("athlete ana", stores.AthleteStore.Save(ctx, athleteDomain.Athlete{
		ID: "a-1", BusinessID: "b-1", Name: "Ana", Email: "ana@example.com",
		PIN: "1234", Active: true, CreatedAt: testNow,
	}))
	mustSave("athlete ben", stores.AthleteStore.Save(ctx, athleteDomain.Athlete{
		ID: "a-2", BusinessID: "b-1", Name: "Ben", PIN: "5678", Active: true, CreatedAt: testNow,
	}))
	mustSave("member ana", stores.GroupStore.AddMember(ctx, "g-1", "a-1"))
	mustSave("member ben", stores.GroupStore.AddMember(ctx, "g-1", "a-2"))
	mustSave("schedule", stores.ScheduleStore.Save(ctx, scheduleDomain.TeamSchedule{
		ID: "s-1", GroupID: "g-1", Day: scheduleDomain.Monday, StartTime: "09:00", EndTime: "10:30",
	}))

	// Monday March 16th, 08:45 New York = 12:45 UTC (EDT).
	mustSave("checkin", stores.CheckInStore.Save(ctx, checkinDomain.CheckIn{
		ID: "c-1", AthleteID: "a-1", CreatedAt: time.Date(2026, 3, 16, 12, 45, 0, 0, time.UTC),
	}))
}

// authRequest returns a request with the given session injected into context.
func authRequest(method, url string, body string, sess middleware.Session) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	ctx := middleware.ContextWithSession(req.Context(), sess)
	return req.WithContext(ctx)
}

func jsonRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var adminSession = middleware.Session{
	AccountID: "admin-001",
	Email:     "admin@test.com",
	Role:      "admin",
	CreatedAt: time.Now(),
}

var ownerSession = middleware.Session{
	AccountID:  "owner-001",
	Email:      "owner@test.com",
	Role:       "owner",
	BusinessID: "b-1",
	CreatedAt:  time.Now(),
}

var otherOwnerSession = middleware.Session{
	AccountID:  "owner-002",
	Email:      "other@test.com",
	Role:       "owner",
	BusinessID: "b-2",
	CreatedAt:  time.Now(),
}

// --- Tests: /api/checkins ---

func TestHandleCheckins_POST_Valid(t *testing.T) {
	setupHandlers(t)

	req := jsonRequest("POST", "/api/checkins", `{"businessId":"b-1","pin":"1234"}`)
	rec := httptest.NewRecorder()
	handleCheckins(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["athleteName"] != "Ana" {
		t.Errorf("got %q, want Ana", resp["athleteName"])
	}

	// The confirmation email must be waiting in the outbox.
	pending, err := stores.OutboxStore.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("got %d pending outbox entries, want 1", len(pending))
	}
}

func TestHandleCheckins_POST_UnknownPIN(t *testing.T) {
	setupHandlers(t)

	req := jsonRequest("POST", "/api/checkins", `{"businessId":"b-1","pin":"0000"}`)
	rec := httptest.NewRecorder()
	handleCheckins(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCheckins_POST_BadPayload(t *testing.T) {
	setupHandlers(t)

	req := jsonRequest("POST", "/api/checkins", `{"businessId":"b-1","pin":"1234","extra":true}`)
	rec := httptest.NewRecorder()
	handleCheckins(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- Tests: /api/checkins/today ---

func TestHandleCheckinsToday_Unauthenticated(t *testing.T) {
	setupHandlers(t)

	req := httptest.NewRequest("GET", "/api/checkins/today", nil)
	rec := httptest.NewRecorder()
	handleCheckinsToday(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleCheckinsToday_OwnerSeesLocalDate(t *testing.T) {
	setupHandlers(t)

	// Wednesday has no check-ins; the Monday row must not bleed in.
	req := authRequest("GET", "/api/checkins/today", "", ownerSession)
	rec := httptest.NewRecorder()
	handleCheckinsToday(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Date      string `json:"date"`
		TotalSeen int    `json:"totalSeen"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Date != "2026-03-18" {
		t.Errorf("got date %q, want 2026-03-18", resp.Date)
	}
	if resp.TotalSeen != 0 {
		t.Errorf("got %d athletes seen, want 0", resp.TotalSeen)
	}
}

func TestHandleCheckinsToday_ForeignBusinessForbidden(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/checkins/today?businessId=b-1", "", otherOwnerSession)
	rec := httptest.NewRecorder()
	handleCheckinsToday(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// --- Tests: /api/reports/attendance ---

func TestHandleAttendanceReport_Weekly(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reports/attendance?groupId=g-1&period=weekly", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAttendanceReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Reports []struct {
			GroupID       string `json:"groupId"`
			TotalAthletes int    `json:"totalAthletes"`
			TotalDays     int    `json:"totalDays"`
			TotalOnTime   int    `json:"totalOnTime"`
			TotalCheckins int    `json:"totalCheckins"`
		} `json:"reports"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(resp.Reports))
	}
	r := resp.Reports[0]
	if r.GroupID != "g-1" || r.TotalAthletes != 2 || r.TotalDays != 7 {
		t.Errorf("unexpected report %+v", r)
	}
	// Ana checked in 08:45 local before the 09:00 Monday start.
	if r.TotalOnTime != 1 || r.TotalCheckins != 1 {
		t.Errorf("unexpected tallies %+v", r)
	}
}

func TestHandleAttendanceReport_ByCategory(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reports/attendance?category=team&period=daily", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAttendanceReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHandleAttendanceReport_InvalidPeriod(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reports/attendance?groupId=g-1&period=fortnightly", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAttendanceReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAttendanceReport_MissingSelector(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reports/attendance?period=weekly", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAttendanceReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAttendanceReport_UnknownGroup(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reports/attendance?groupId=g-missing&period=weekly", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAttendanceReport(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

// --- Tests: /api/statistics ---

func TestHandleStatistics_Admin(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/statistics?businessId=b-1", "", adminSession)
	rec := httptest.NewRecorder()
	handleStatistics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Year        int    `json:"year"`
		TotalGroups int    `json:"totalGroups"`
		Monthly     [12]int `json:"monthly"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Year != 2026 || resp.TotalGroups != 1 {
		t.Errorf("unexpected statistics %+v", resp)
	}
	if resp.Monthly[2] != 1 {
		t.Errorf("got %d March check-ins, want 1", resp.Monthly[2])
	}
}

// --- Tests: /api/schedules ---

func TestHandleSchedules_POST_Upsert(t *testing.T) {
	setupHandlers(t)

	body := `{"groupId":"g-1","day":"thursday","startTime":"17:30","endTime":"19:00"}`
	req := authRequest("POST", "/api/schedules", body, ownerSession)
	rec := httptest.NewRecorder()
	handleSchedules(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rows, err := stores.ScheduleStore.ListByGroupID(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("list schedules: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d schedule rows, want 2", len(rows))
	}
}

func TestHandleSchedules_POST_InvalidDay(t *testing.T) {
	setupHandlers(t)

	body := `{"groupId":"g-1","day":"funday","startTime":"17:30","endTime":"19:00"}`
	req := authRequest("POST", "/api/schedules", body, ownerSession)
	rec := httptest.NewRecorder()
	handleSchedules(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSchedules_DELETE(t *testing.T) {
	setupHandlers(t)

	req := authRequest("DELETE", "/api/schedules?groupId=g-1&day=monday", "", ownerSession)
	rec := httptest.NewRecorder()
	handleSchedules(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusNoContent)
	}
	rows, _ := stores.ScheduleStore.ListByGroupID(context.Background(), "g-1")
	if len(rows) != 0 {
		t.Errorf("got %d schedule rows, want 0", len(rows))
	}
}

func TestHandleSchedules_ForeignOwnerBlocked(t *testing.T) {
	setupHandlers(t)

	body := `{"groupId":"g-1","day":"friday","startTime":"09:00","endTime":"10:00"}`
	req := authRequest("POST", "/api/schedules", body, otherOwnerSession)
	rec := httptest.NewRecorder()
	handleSchedules(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

// --- Tests: /api/groups ---

func TestHandleGroups_GET(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/groups", "", ownerSession)
	rec := httptest.NewRecorder()
	handleGroups(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	var groups []groupJSON
	json.NewDecoder(rec.Body).Decode(&groups)
	if len(groups) != 1 || groups[0].Name != "Seniors" {
		t.Errorf("unexpected groups %+v", groups)
	}
}

func TestHandleGroups_POST_Valid(t *testing.T) {
	setupHandlers(t)

	body := `{"name":"Juniors","category":"class","athleteIds":["a-1"]}`
	req := authRequest("POST", "/api/groups", body, ownerSession)
	rec := httptest.NewRecorder()
	handleGroups(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var g groupJSON
	json.NewDecoder(rec.Body).Decode(&g)
	members, err := stores.GroupStore.ListMemberIDs(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0] != "a-1" {
		t.Errorf("unexpected members %v", members)
	}
}

func TestHandleGroups_POST_InvalidCategory(t *testing.T) {
	setupHandlers(t)

	body := `{"name":"Juniors","category":"squad"}`
	req := authRequest("POST", "/api/groups", body, ownerSession)
	rec := httptest.NewRecorder()
	handleGroups(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- Tests: /api/athletes ---

func TestHandleAthletes_GET_HidesPINs(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/athletes", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAthletes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Athletes []athleteJSON `json:"athletes"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Athletes) != 2 {
		t.Errorf("got %d athletes, want 2", len(resp.Athletes))
	}
	if strings.Contains(rec.Body.String(), "1234") {
		t.Errorf("PIN leaked in list response: %s", rec.Body.String())
	}
}

func TestHandleAthletes_GET_Search(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/athletes?q=ana", "", ownerSession)
	rec := httptest.NewRecorder()
	handleAthletes(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Athletes []athleteJSON `json:"athletes"`
		PageInfo struct {
			Total int `json:"Total"`
		} `json:"pageInfo"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Athletes) != 1 || resp.Athletes[0].Name != "Ana" {
		t.Errorf("unexpected search result %+v", resp.Athletes)
	}
	if resp.PageInfo.Total != 1 {
		t.Errorf("got total %d, want 1", resp.PageInfo.Total)
	}
}

func TestHandleAthletes_POST_GeneratesPIN(t *testing.T) {
	setupHandlers(t)

	body := `{"name":"Cleo","active":true}`
	req := authRequest("POST", "/api/athletes", body, ownerSession)
	rec := httptest.NewRecorder()
	handleAthletes(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var a athleteJSON
	json.NewDecoder(rec.Body).Decode(&a)
	if len(a.PIN) != 4 {
		t.Errorf("got PIN %q, want 4 generated digits", a.PIN)
	}
}

func TestHandleAthletes_POST_DuplicatePIN(t *testing.T) {
	setupHandlers(t)

	body := `{"name":"Cleo","pin":"1234","active":true}`
	req := authRequest("POST", "/api/athletes", body, ownerSession)
	rec := httptest.NewRecorder()
	handleAthletes(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- Tests: /api/reporting ---

func TestHandleReporting_GET_Defaults(t *testing.T) {
	setupHandlers(t)

	req := authRequest("GET", "/api/reporting", "", ownerSession)
	rec := httptest.NewRecorder()
	handleReporting(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp reportingJSON
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Duration != "weekly" || resp.PINLength != 4 || resp.Enabled {
		t.Errorf("unexpected defaults %+v", resp)
	}
}

func TestHandleReporting_PUT_RoundTrip(t *testing.T) {
	setupHandlers(t)

	body := `{"businessId":"b-1","enabled":true,"duration":"monthly","email":"coach@example.com","pinLength":6}`
	req := authRequest("PUT", "/api/reporting", body, ownerSession)
	rec := httptest.NewRecorder()
	handleReporting(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	saved, err := stores.ReportingStore.GetByBusinessID(context.Background(), "b-1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if !saved.Enabled || saved.Duration != "monthly" || saved.PINLength != 6 {
		t.Errorf("unexpected settings %+v", saved)
	}
}

func TestHandleReporting_PUT_InvalidPINLength(t *testing.T) {
	setupHandlers(t)

	body := `{"businessId":"b-1","enabled":true,"duration":"weekly","email":"coach@example.com","pinLength":2}`
	req := authRequest("PUT", "/api/reporting", body, ownerSession)
	rec := httptest.NewRecorder()
	handleReporting(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// --- Tests: /api/login ---

func accountSeed(t *testing.T, email, password string) accountDomain.Account {
	t.Helper()
	acc := accountDomain.Account{
		ID:         "acct-1",
		Email:      email,
		Role:       accountDomain.RoleOwner,
		BusinessID: "b-1",
		CreatedAt:  time.Now(),
	}
	if err := acc.SetPassword(password); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := stores.AccountStore.Save(context.Background(), acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func TestHandleLogin_RoundTrip(t *testing.T) {
	setupHandlers(t)

	acc := accountSeed(t, "owner@test.com", "correct-horse-battery")

	req := jsonRequest("POST", "/api/login", `{"Email":"owner@test.com","Password":"correct-horse-battery"}`)
	rec := httptest.NewRecorder()
	handleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Value == "" {
		t.Fatalf("expected a session cookie")
	}
	sess, ok := sessions.Get(cookies[0].Value)
	if !ok || sess.AccountID != acc.ID {
		t.Errorf("session not stored for account")
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	setupHandlers(t)
	accountSeed(t, "owner@test.com", "correct-horse-battery")

	req := jsonRequest("POST", "/api/login", `{"Email":"owner@test.com","Password":"wrong-password-here"}`)
	rec := httptest.NewRecorder()
	handleLogin(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// --- Tests: /api/accounts and route guards ---

// routeMux builds the real route table so the auth guards in front of
// the handlers are part of the request path.
func routeMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	registerRoutes(mux)
	return mux
}

func TestRoutes_UnauthenticatedRejected(t *testing.T) {
	setupHandlers(t)
	mux := routeMux(t)

	for _, path := range []string{
		"/api/checkins/today",
		"/api/reports/attendance",
		"/api/statistics",
		"/api/schedules",
		"/api/groups",
		"/api/athletes",
		"/api/reporting",
	} {
		req := httptest.NewRequest("GET", path+"?businessId=b-1", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: got %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestHandleAccounts_AdminCreatesOwner(t *testing.T) {
	setupHandlers(t)
	mux := routeMux(t)

	body := `{"email":"New.Owner@Test.com","password":"correct-horse-battery","role":"owner","businessId":"b-1"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authRequest("POST", "/api/accounts", body, adminSession))

	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["email"] != "new.owner@test.com" || resp["role"] != "owner" {
		t.Errorf("unexpected response %v", resp)
	}

	acc, err := stores.AccountStore.GetByEmail(context.Background(), "new.owner@test.com")
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if err := acc.CheckPassword("correct-horse-battery"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestHandleAccounts_OwnerForbidden(t *testing.T) {
	setupHandlers(t)
	mux := routeMux(t)

	body := `{"email":"sneaky@test.com","password":"correct-horse-battery","role":"owner","businessId":"b-1"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authRequest("POST", "/api/accounts", body, ownerSession))

	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestHandleAccounts_DuplicateEmail(t *testing.T) {
	setupHandlers(t)
	mux := routeMux(t)
	accountSeed(t, "owner@test.com", "correct-horse-battery")

	body := `{"email":"owner@test.com","password":"another-long-password","role":"owner","businessId":"b-1"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authRequest("POST", "/api/accounts", body, adminSession))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleAccounts_ShortPassword(t *testing.T) {
	setupHandlers(t)
	mux := routeMux(t)

	body := `{"email":"new@test.com","password":"short","role":"admin","businessId":""}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authRequest("POST", "/api/accounts", body, adminSession))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
