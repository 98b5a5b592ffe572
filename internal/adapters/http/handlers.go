package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/adapters/http/middleware"
	"rollcall/internal/application/listutil"
	"rollcall/internal/application/orchestrators"
	"rollcall/internal/application/projections"
	"rollcall/internal/domain/account"
	"rollcall/internal/domain/athlete"
	"rollcall/internal/domain/group"
	"rollcall/internal/domain/period"
	"rollcall/internal/domain/reporting"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireSession resolves the authenticated session or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return middleware.Session{}, false
	}
	return sess, true
}

// resolveBusinessID picks the business a request acts on: owners are
// pinned to their own business, admins pass ?businessId=.
func resolveBusinessID(w http.ResponseWriter, r *http.Request, sess middleware.Session) (string, bool) {
	businessID := r.URL.Query().Get("businessId")
	if businessID == "" {
		businessID = sess.BusinessID
	}
	if businessID == "" {
		http.Error(w, "businessId is required", http.StatusBadRequest)
		return "", false
	}
	if !sess.CanManage(businessID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	return businessID, true
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", handleLogin)
	mux.HandleFunc("/api/logout", handleLogout)
	mux.HandleFunc("/api/checkins", handleCheckins) // public kiosk endpoint

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}
	mux.Handle("/api/checkins/today", authed(handleCheckinsToday))
	mux.Handle("/api/reports/attendance", authed(handleAttendanceReport))
	mux.Handle("/api/statistics", authed(handleStatistics))
	mux.Handle("/api/schedules", authed(handleSchedules))
	mux.Handle("/api/groups", authed(handleGroups))
	mux.Handle("/api/athletes", authed(handleAthletes))
	mux.Handle("/api/reporting", authed(handleReporting))
	mux.Handle("/api/accounts", middleware.RequireRole(account.RoleAdmin)(http.HandlerFunc(handleAccounts)))
}

// handleLogin handles POST /api/login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	input := orchestrators.LoginInput{}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		AccountStore: stores.AccountStore,
	})
	if errors.Is(err, orchestrators.ErrAccountLocked) {
		http.Error(w, "account locked", http.StatusForbidden)
		return
	}
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	acc := result.Account
	token, err := sessions.Create(acc.ID, acc.Email, acc.Role, acc.BusinessID)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{
		"role":       acc.Role,
		"businessId": acc.BusinessID,
	})
}

// handleLogout handles POST /api/logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if cookie, err := r.Cookie("rollcall_session"); err == nil && cookie.Value != "" {
		sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleAccounts handles POST /api/accounts. Admin only: owners cannot
// mint logins, not even for their own business.
func handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		BusinessID string `json:"businessId"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	acc, err := orchestrators.ExecuteCreateAccount(r.Context(), orchestrators.CreateAccountInput{
		Email:      input.Email,
		Password:   input.Password,
		Role:       input.Role,
		BusinessID: input.BusinessID,
	}, orchestrators.CreateAccountDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   generateID,
		Now:          timeNow,
	})
	switch {
	case err == nil:
	case errors.Is(err, orchestrators.ErrEmailAlreadyExists),
		errors.Is(err, orchestrators.ErrOwnerRequiresBusiness),
		errors.Is(err, account.ErrPasswordTooShort),
		errors.Is(err, account.ErrEmptyPassword),
		errors.Is(err, account.ErrInvalidRole),
		errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrEmptyEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":         acc.ID,
		"email":      acc.Email,
		"role":       acc.Role,
		"businessId": acc.BusinessID,
	})
}

// handleCheckins handles POST /api/checkins — the public kiosk
// endpoint. Identification is by business plus PIN, no session.
func handleCheckins(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var input struct {
		BusinessID string `json:"businessId"`
		PIN        string `json:"pin"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteCheckInAthlete(r.Context(), orchestrators.CheckInAthleteInput{
		BusinessID: input.BusinessID,
		PIN:        input.PIN,
	}, orchestrators.CheckInAthleteDeps{
		BusinessStore: stores.BusinessStore,
		AthleteStore:  stores.AthleteStore,
		CheckInStore:  stores.CheckInStore,
		OutboxStore:   stores.OutboxStore,
		GenerateID:    generateID,
		Now:           timeNow,
	})
	if errors.Is(err, orchestrators.ErrUnknownPIN) {
		http.Error(w, "unknown PIN", http.StatusNotFound)
		return
	}
	if errors.Is(err, orchestrators.ErrInactiveAthlete) {
		http.Error(w, "athlete is inactive", http.StatusForbidden)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"checkinId":   result.CheckinID,
		"athleteName": result.AthleteName,
	})
}

// handleCheckinsToday handles GET /api/checkins/today
func handleCheckinsToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	businessID, ok := resolveBusinessID(w, r, sess)
	if !ok {
		return
	}

	result, err := projections.QueryCheckinsToday(r.Context(), projections.CheckinsTodayQuery{
		BusinessID: businessID,
		Now:        timeNow(),
	}, projections.CheckinsTodayDeps{
		BusinessStore: stores.BusinessStore,
		AthleteStore:  stores.AthleteStore,
		CheckInStore:  stores.CheckInStore,
	})
	if errors.Is(err, projections.ErrBusinessNotFound) {
		http.Error(w, "business not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAttendanceReport handles GET /api/reports/attendance
func handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	businessID, ok := resolveBusinessID(w, r, sess)
	if !ok {
		return
	}

	p, err := period.Parse(r.URL.Query().Get("period"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	groupID := r.URL.Query().Get("groupId")
	category := r.URL.Query().Get("category")
	if groupID == "" && category == "" {
		http.Error(w, "groupId or category is required", http.StatusBadRequest)
		return
	}

	result, err := projections.QueryGroupAttendance(r.Context(), projections.GroupAttendanceQuery{
		BusinessID: businessID,
		GroupID:    groupID,
		Category:   category,
		Period:     p,
		Now:        timeNow(),
	}, attendanceDeps())
	if errors.Is(err, projections.ErrBusinessNotFound) || errors.Is(err, projections.ErrGroupNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func attendanceDeps() projections.GroupAttendanceDeps {
	return projections.GroupAttendanceDeps{
		BusinessStore: stores.BusinessStore,
		GroupStore:    stores.GroupStore,
		AthleteStore:  stores.AthleteStore,
		CheckInStore:  stores.CheckInStore,
		ScheduleStore: stores.ScheduleStore,
	}
}

// handleStatistics handles GET /api/statistics
func handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	businessID, ok := resolveBusinessID(w, r, sess)
	if !ok {
		return
	}

	result, err := projections.QueryBusinessStatistics(r.Context(), projections.BusinessStatisticsQuery{
		BusinessID: businessID,
		Now:        timeNow(),
	}, projections.BusinessStatisticsDeps{
		BusinessStore: stores.BusinessStore,
		GroupStore:    stores.GroupStore,
		AthleteStore:  stores.AthleteStore,
		CheckInStore:  stores.CheckInStore,
	})
	if errors.Is(err, projections.ErrBusinessNotFound) {
		http.Error(w, "business not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSchedules handles GET|POST|DELETE /api/schedules
func handleSchedules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	scheduleDeps := orchestrators.UpsertScheduleDeps{
		GroupStore:    stores.GroupStore,
		ScheduleStore: stores.ScheduleStore,
		GenerateID:    generateID,
	}

	switch r.Method {
	case "GET":
		groupID := r.URL.Query().Get("groupId")
		if groupID == "" {
			http.Error(w, "groupId is required", http.StatusBadRequest)
			return
		}
		g, err := stores.GroupStore.GetByID(ctx, groupID)
		if err != nil || !sess.CanManage(g.BusinessID) {
			http.Error(w, "group not found", http.StatusNotFound)
			return
		}
		rows, err := stores.ScheduleStore.ListByGroupID(ctx, groupID)
		if err != nil {
			internalError(w, err)
			return
		}
		out := make([]scheduleJSON, 0, len(rows))
		for _, s := range rows {
			out = append(out, scheduleJSON{ID: s.ID, GroupID: s.GroupID, Day: s.Day, StartTime: s.StartTime, EndTime: s.EndTime})
		}
		writeJSON(w, http.StatusOK, out)

	case "POST":
		var input struct {
			GroupID   string `json:"groupId"`
			Day       string `json:"day"`
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
		}
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		g, err := stores.GroupStore.GetByID(ctx, input.GroupID)
		if err != nil {
			http.Error(w, "group not found", http.StatusNotFound)
			return
		}
		if !sess.CanManage(g.BusinessID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		s, err := orchestrators.ExecuteUpsertSchedule(ctx, orchestrators.UpsertScheduleInput{
			BusinessID: g.BusinessID,
			GroupID:    input.GroupID,
			Day:        input.Day,
			StartTime:  input.StartTime,
			EndTime:    input.EndTime,
		}, scheduleDeps)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, scheduleJSON{ID: s.ID, GroupID: s.GroupID, Day: s.Day, StartTime: s.StartTime, EndTime: s.EndTime})

	case "DELETE":
		groupID := r.URL.Query().Get("groupId")
		day := r.URL.Query().Get("day")
		if groupID == "" || day == "" {
			http.Error(w, "groupId and day are required", http.StatusBadRequest)
			return
		}
		g, err := stores.GroupStore.GetByID(ctx, groupID)
		if err != nil {
			http.Error(w, "group not found", http.StatusNotFound)
			return
		}
		if !sess.CanManage(g.BusinessID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if err := orchestrators.ExecuteDeleteSchedule(ctx, g.BusinessID, groupID, day, scheduleDeps); err != nil {
			internalError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleGroups handles GET|POST /api/groups
func handleGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		businessID, ok := resolveBusinessID(w, r, sess)
		if !ok {
			return
		}
		groups, err := stores.GroupStore.ListByBusinessID(ctx, businessID)
		if err != nil {
			internalError(w, err)
			return
		}
		out := make([]groupJSON, 0, len(groups))
		for _, g := range groups {
			out = append(out, toGroupJSON(g))
		}
		writeJSON(w, http.StatusOK, out)

	case "POST":
		var input struct {
			BusinessID string   `json:"businessId"`
			Name       string   `json:"name"`
			Category   string   `json:"category"`
			AthleteIDs []string `json:"athleteIds"`
		}
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if input.BusinessID == "" {
			input.BusinessID = sess.BusinessID
		}
		if !sess.CanManage(input.BusinessID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		g := group.AthleteGroup{
			ID:         generateID(),
			BusinessID: input.BusinessID,
			Name:       input.Name,
			Category:   input.Category,
			CreatedAt:  timeNow().UTC(),
		}
		if err := g.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.GroupStore.Save(ctx, g); err != nil {
			internalError(w, err)
			return
		}
		for _, athleteID := range input.AthleteIDs {
			if err := stores.GroupStore.AddMember(ctx, g.ID, athleteID); err != nil {
				internalError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusCreated, toGroupJSON(g))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAthletes handles GET|POST /api/athletes
func handleAthletes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		businessID, ok := resolveBusinessID(w, r, sess)
		if !ok {
			return
		}
		lp := listutil.ParseListParams(r.URL.Query(), nil, nil)
		athletes, err := stores.AthleteStore.ListByBusinessID(ctx, businessID)
		if err != nil {
			internalError(w, err)
			return
		}
		if lp.Search != "" {
			needle := strings.ToLower(lp.Search)
			filtered := athletes[:0]
			for _, a := range athletes {
				if strings.Contains(strings.ToLower(a.Name), needle) ||
					strings.Contains(strings.ToLower(a.Email), needle) {
					filtered = append(filtered, a)
				}
			}
			athletes = filtered
		}
		pageInfo := listutil.NewPageInfo(lp.Page, lp.PerPage, len(athletes))
		athletes = athletes[pageInfo.Offset():pageInfo.EndRow()]
		// PINs are kiosk credentials and never leave the server in
		// list responses.
		out := make([]athleteJSON, 0, len(athletes))
		for _, a := range athletes {
			j := toAthleteJSON(a)
			j.PIN = ""
			out = append(out, j)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"athletes": out,
			"pageInfo": pageInfo,
		})

	case "POST":
		var input struct {
			ID          string   `json:"id"`
			BusinessID  string   `json:"businessId"`
			Name        string   `json:"name"`
			Email       string   `json:"email"`
			PIN         string   `json:"pin"`
			DateOfBirth string   `json:"dateOfBirth"`
			Description string   `json:"description"`
			Active      bool     `json:"active"`
			GroupIDs    []string `json:"groupIds"`
		}
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if input.BusinessID == "" {
			input.BusinessID = sess.BusinessID
		}
		if !sess.CanManage(input.BusinessID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// Generated PINs follow the business's configured length.
		pinLength := 4
		if settings, err := stores.ReportingStore.GetByBusinessID(ctx, input.BusinessID); err == nil {
			pinLength = settings.PINLength
		}

		result, err := orchestrators.ExecuteRegisterAthlete(ctx, orchestrators.RegisterAthleteInput{
			ID:          input.ID,
			BusinessID:  input.BusinessID,
			Name:        input.Name,
			Email:       input.Email,
			PIN:         input.PIN,
			PINLength:   pinLength,
			DateOfBirth: input.DateOfBirth,
			Description: input.Description,
			Active:      input.Active,
			GroupIDs:    input.GroupIDs,
		}, orchestrators.RegisterAthleteDeps{
			BusinessStore: stores.BusinessStore,
			AthleteStore:  stores.AthleteStore,
			GroupStore:    stores.GroupStore,
			OutboxStore:   stores.OutboxStore,
			GenerateID:    generateID,
			Now:           timeNow,
		})
		if errors.Is(err, orchestrators.ErrPINTaken) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		// The create response is the one place the PIN is returned, so
		// a kiosk card can be issued.
		writeJSON(w, status, toAthleteJSON(result.Athlete))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleReporting handles GET|PUT /api/reporting
func handleReporting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		businessID, ok := resolveBusinessID(w, r, sess)
		if !ok {
			return
		}
		settings, err := stores.ReportingStore.GetByBusinessID(ctx, businessID)
		if err != nil {
			// No row yet: present the defaults rather than a 404.
			settings = reporting.Settings{
				BusinessID: businessID,
				Duration:   reporting.DurationWeekly,
				PINLength:  4,
			}
		}
		writeJSON(w, http.StatusOK, reportingJSON{
			BusinessID: settings.BusinessID,
			Enabled:    settings.Enabled,
			Duration:   settings.Duration,
			Email:      settings.Email,
			PINLength:  settings.PINLength,
		})

	case "PUT":
		var input reportingJSON
		if err := strictDecode(r, &input); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		if input.BusinessID == "" {
			input.BusinessID = sess.BusinessID
		}
		if !sess.CanManage(input.BusinessID) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		settings := reporting.Settings{
			BusinessID: input.BusinessID,
			Enabled:    input.Enabled,
			Duration:   input.Duration,
			Email:      input.Email,
			PINLength:  input.PINLength,
		}
		if err := settings.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := stores.ReportingStore.Save(ctx, settings); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, input)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Wire shapes. Domain structs stay free of serialization concerns.

type reportingJSON struct {
	BusinessID string `json:"businessId"`
	Enabled    bool   `json:"enabled"`
	Duration   string `json:"duration"`
	Email      string `json:"email"`
	PINLength  int    `json:"pinLength"`
}

type scheduleJSON struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type groupJSON struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	CreatedAt  string `json:"createdAt"`
}

func toGroupJSON(g group.AthleteGroup) groupJSON {
	return groupJSON{
		ID:         g.ID,
		BusinessID: g.BusinessID,
		Name:       g.Name,
		Category:   g.Category,
		CreatedAt:  g.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type athleteJSON struct {
	ID          string `json:"id"`
	BusinessID  string `json:"businessId"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PIN         string `json:"pin,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

func toAthleteJSON(a athlete.Athlete) athleteJSON {
	return athleteJSON{
		ID:          a.ID,
		BusinessID:  a.BusinessID,
		Name:        a.Name,
		Email:       a.Email,
		PIN:         a.PIN,
		DateOfBirth: a.DateOfBirth,
		Description: a.Description,
		Active:      a.Active,
	}
}
