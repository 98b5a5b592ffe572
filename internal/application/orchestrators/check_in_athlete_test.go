package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"rollcall/internal/domain/athlete"
	"rollcall/internal/domain/business"
	"rollcall/internal/domain/checkin"
	"rollcall/internal/domain/outbox"
)

type mockCheckInBusinessStore struct {
	businesses map[string]business.Business
}

func (m *mockCheckInBusinessStore) GetByID(ctx context.Context, id string) (business.Business, error) {
	b, ok := m.businesses[id]
	if !ok {
		return business.Business{}, errors.New("business not found")
	}
	return b, nil
}

type mockCheckInAthleteStore struct {
	athletes []athlete.Athlete
	pinErr   error
}

func (m *mockCheckInAthleteStore) GetByPIN(ctx context.Context, businessID, pin string) (athlete.Athlete, error) {
	if m.pinErr != nil {
		return athlete.Athlete{}, m.pinErr
	}
	for _, a := range m.athletes {
		if a.BusinessID == businessID && a.PIN == pin {
			return a, nil
		}
	}
	return athlete.Athlete{}, fmt.Errorf("athlete not found: %w", sql.ErrNoRows)
}

type mockCheckInSaver struct {
	saved   []checkin.CheckIn
	saveErr error
}

func (m *mockCheckInSaver) Save(ctx context.Context, c checkin.CheckIn) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, c)
	return nil
}

type mockOutboxEnqueuer struct {
	entries []outbox.Entry
	saveErr error
}

func (m *mockOutboxEnqueuer) Save(ctx context.Context, e outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func checkInDeps() (CheckInAthleteDeps, *mockCheckInSaver, *mockOutboxEnqueuer) {
	checkins := &mockCheckInSaver{}
	enqueuer := &mockOutboxEnqueuer{}
	deps := CheckInAthleteDeps{
		BusinessStore: &mockCheckInBusinessStore{
			businesses: map[string]business.Business{
				"b-1": {ID: "b-1", Name: "Harbour Gym", Timezone: "America/New_York", Message: "**Great work!**"},
			},
		},
		AthleteStore: &mockCheckInAthleteStore{
			athletes: []athlete.Athlete{
				{ID: "a-1", BusinessID: "b-1", Name: "Ana", Email: "ana@example.com", PIN: "1234", Active: true},
				{ID: "a-2", BusinessID: "b-1", Name: "Ben", PIN: "5678", Active: true},
				{ID: "a-3", BusinessID: "b-1", Name: "Cleo", Email: "cleo@example.com", PIN: "9999", Active: false},
			},
		},
		CheckInStore: checkins,
		OutboxStore:  enqueuer,
		GenerateID:   func() string { return "fixed-id" },
		Now:          func() time.Time { return time.Date(2026, 3, 16, 13, 45, 0, 0, time.UTC) },
	}
	return deps, checkins, enqueuer
}

func TestExecuteCheckInAthlete(t *testing.T) {
	t.Run("successful check-in persists a UTC row", func(t *testing.T) {
		deps, checkins, _ := checkInDeps()

		result, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "1234"}, deps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AthleteID != "a-1" || result.AthleteName != "Ana" {
			t.Errorf("unexpected result: %+v", result)
		}
		if len(checkins.saved) != 1 {
			t.Fatalf("expected 1 saved check-in, got %d", len(checkins.saved))
		}
		saved := checkins.saved[0]
		if saved.CreatedAt.Location() != time.UTC {
			t.Errorf("expected UTC timestamp, got %v", saved.CreatedAt.Location())
		}
		if !saved.CreatedAt.Equal(time.Date(2026, 3, 16, 13, 45, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp %v", saved.CreatedAt)
		}
	})

	t.Run("confirmation email queued with rendered message", func(t *testing.T) {
		deps, _, enqueuer := checkInDeps()

		if _, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "1234"}, deps); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(enqueuer.entries) != 1 {
			t.Fatalf("expected 1 outbox entry, got %d", len(enqueuer.entries))
		}
		entry := enqueuer.entries[0]
		if entry.ActionType != outbox.ActionTypeEmail {
			t.Errorf("expected email action, got %q", entry.ActionType)
		}
		if entry.Status != outbox.StatusPending {
			t.Errorf("expected pending status, got %q", entry.Status)
		}
		var payload EmailPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			t.Fatalf("payload is not valid JSON: %v", err)
		}
		if payload.To != "ana@example.com" {
			t.Errorf("unexpected recipient %q", payload.To)
		}
		if !strings.Contains(payload.HTML, "<strong>Great work!</strong>") {
			t.Errorf("business markdown not rendered, got %q", payload.HTML)
		}
	})

	t.Run("athlete without email gets no outbox entry", func(t *testing.T) {
		deps, checkins, enqueuer := checkInDeps()

		if _, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "5678"}, deps); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(checkins.saved) != 1 {
			t.Errorf("expected check-in to be saved")
		}
		if len(enqueuer.entries) != 0 {
			t.Errorf("expected no outbox entries, got %d", len(enqueuer.entries))
		}
	})

	t.Run("unknown PIN", func(t *testing.T) {
		deps, checkins, _ := checkInDeps()

		_, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "0000"}, deps)
		if !errors.Is(err, ErrUnknownPIN) {
			t.Errorf("expected ErrUnknownPIN, got %v", err)
		}
		if len(checkins.saved) != 0 {
			t.Errorf("expected no saved check-ins")
		}
	})

	t.Run("PIN from another business is unknown", func(t *testing.T) {
		deps, _, _ := checkInDeps()
		deps.BusinessStore = &mockCheckInBusinessStore{
			businesses: map[string]business.Business{
				"b-1": {ID: "b-1", Name: "Harbour Gym", Timezone: "UTC"},
				"b-2": {ID: "b-2", Name: "River Club", Timezone: "UTC"},
			},
		}

		_, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-2", PIN: "1234"}, deps)
		if !errors.Is(err, ErrUnknownPIN) {
			t.Errorf("expected ErrUnknownPIN, got %v", err)
		}
	})

	t.Run("failing athlete store is not an unknown PIN", func(t *testing.T) {
		deps, checkins, _ := checkInDeps()
		deps.AthleteStore.(*mockCheckInAthleteStore).pinErr = errors.New("database is locked")

		_, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "1234"}, deps)
		if err == nil {
			t.Fatal("expected error when the athlete store fails")
		}
		if errors.Is(err, ErrUnknownPIN) {
			t.Errorf("store failure reported as ErrUnknownPIN: %v", err)
		}
		if len(checkins.saved) != 0 {
			t.Errorf("expected no saved check-ins")
		}
	})

	t.Run("inactive athlete rejected", func(t *testing.T) {
		deps, checkins, _ := checkInDeps()

		_, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "9999"}, deps)
		if !errors.Is(err, ErrInactiveAthlete) {
			t.Errorf("expected ErrInactiveAthlete, got %v", err)
		}
		if len(checkins.saved) != 0 {
			t.Errorf("expected no saved check-ins")
		}
	})

	t.Run("outbox failure does not fail the check-in", func(t *testing.T) {
		deps, checkins, enqueuer := checkInDeps()
		enqueuer.saveErr = errors.New("disk full")

		result, err := ExecuteCheckInAthlete(context.Background(), CheckInAthleteInput{BusinessID: "b-1", PIN: "1234"}, deps)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.CheckinID == "" {
			t.Errorf("expected a check-in ID")
		}
		if len(checkins.saved) != 1 {
			t.Errorf("expected check-in to be saved")
		}
	})
}
