package orchestrators

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"rollcall/internal/domain/athlete"
	"rollcall/internal/domain/business"
	"rollcall/internal/domain/outbox"
)

// Errors surfaced by athlete registration.
var (
	ErrPINTaken        = errors.New("PIN is already assigned within this business")
	ErrPINSpaceExhaust = errors.New("could not generate an unused PIN")
)

const maxPinAttempts = 20

// RegisterAthleteStore defines the athlete persistence needed for
// registration.
type RegisterAthleteStore interface {
	GetByID(ctx context.Context, id string) (athlete.Athlete, error)
	GetByPIN(ctx context.Context, businessID, pin string) (athlete.Athlete, error)
	Save(ctx context.Context, a athlete.Athlete) error
}

// RegisterGroupMembershipStore adds athletes to groups at registration
// time.
type RegisterGroupMembershipStore interface {
	AddMember(ctx context.Context, groupID, athleteID string) error
}

// RegisterAthleteInput carries input for creating or updating an
// athlete. An empty ID creates; a set ID updates. An empty PIN on
// create requests a generated one.
type RegisterAthleteInput struct {
	ID          string
	BusinessID  string
	Name        string
	Email       string
	PIN         string
	PINLength   int // used only when generating; defaults to 4
	DateOfBirth string
	Description string
	Active      bool
	GroupIDs    []string
}

// RegisterAthleteResult carries the stored athlete, including any
// generated PIN.
type RegisterAthleteResult struct {
	Athlete athlete.Athlete
	Created bool
}

// RegisterAthleteDeps holds dependencies for RegisterAthlete.
type RegisterAthleteDeps struct {
	BusinessStore CheckInBusinessStore
	AthleteStore  RegisterAthleteStore
	GroupStore    RegisterGroupMembershipStore
	OutboxStore   OutboxEnqueuer // optional: nil skips the welcome email
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteRegisterAthlete creates or updates an athlete. New athletes
// without an explicit PIN get a random numeric one unique within the
// business, and a welcome email is queued when an address is known.
// PRE: BusinessID and Name are non-empty
// POST: Athlete persisted; PIN unique within the business
func ExecuteRegisterAthlete(ctx context.Context, input RegisterAthleteInput, deps RegisterAthleteDeps) (RegisterAthleteResult, error) {
	biz, err := deps.BusinessStore.GetByID(ctx, input.BusinessID)
	if err != nil {
		return RegisterAthleteResult{}, fmt.Errorf("business lookup: %w", err)
	}

	var a athlete.Athlete
	created := input.ID == ""
	if created {
		a = athlete.Athlete{
			ID:         deps.GenerateID(),
			BusinessID: input.BusinessID,
			CreatedAt:  deps.Now().UTC(),
		}
	} else {
		a, err = deps.AthleteStore.GetByID(ctx, input.ID)
		if err != nil {
			return RegisterAthleteResult{}, fmt.Errorf("athlete lookup: %w", err)
		}
		if a.BusinessID != input.BusinessID {
			return RegisterAthleteResult{}, errors.New("athlete belongs to a different business")
		}
	}

	a.Name = input.Name
	a.Email = input.Email
	a.DateOfBirth = input.DateOfBirth
	a.Description = input.Description
	a.Active = input.Active

	switch {
	case input.PIN != "":
		if err := ensurePINAvailable(ctx, deps.AthleteStore, input.BusinessID, input.PIN, a.ID); err != nil {
			return RegisterAthleteResult{}, err
		}
		a.PIN = input.PIN
	case a.PIN == "":
		pin, err := generatePIN(ctx, deps.AthleteStore, input.BusinessID, input.PINLength)
		if err != nil {
			return RegisterAthleteResult{}, err
		}
		a.PIN = pin
	}

	if err := a.Validate(); err != nil {
		return RegisterAthleteResult{}, err
	}
	if err := deps.AthleteStore.Save(ctx, a); err != nil {
		return RegisterAthleteResult{}, err
	}

	for _, groupID := range input.GroupIDs {
		if err := deps.GroupStore.AddMember(ctx, groupID, a.ID); err != nil {
			return RegisterAthleteResult{}, fmt.Errorf("add to group %s: %w", groupID, err)
		}
	}

	if created && deps.OutboxStore != nil && a.Email != "" {
		if err := enqueueWelcomeEmail(ctx, biz, a, deps); err != nil {
			slog.Error("welcome_email_enqueue_failed", "athlete_id", a.ID, "error", err.Error())
		}
	}

	slog.Info("athlete_event", "event", eventName(created), "athlete_id", a.ID, "business_id", a.BusinessID)

	return RegisterAthleteResult{Athlete: a, Created: created}, nil
}

func eventName(created bool) string {
	if created {
		return "athlete_registered"
	}
	return "athlete_updated"
}

// ensurePINAvailable rejects a PIN already held by a different athlete
// in the same business. A failing lookup aborts: an unverified PIN must
// never reach Save.
func ensurePINAvailable(ctx context.Context, store RegisterAthleteStore, businessID, pin, selfID string) error {
	existing, err := store.GetByPIN(ctx, businessID, pin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pin lookup: %w", err)
	}
	if existing.ID != selfID {
		return ErrPINTaken
	}
	return nil
}

// generatePIN draws random numeric PINs until one is unused within the
// business, with a bounded number of attempts.
func generatePIN(ctx context.Context, store RegisterAthleteStore, businessID string, length int) (string, error) {
	if length < 4 {
		length = 4
	}
	if length > 9 {
		length = 9
	}
	for attempt := 0; attempt < maxPinAttempts; attempt++ {
		pin, err := randomDigits(length)
		if err != nil {
			return "", err
		}
		_, err = store.GetByPIN(ctx, businessID, pin)
		if errors.Is(err, sql.ErrNoRows) {
			return pin, nil
		}
		if err != nil {
			return "", fmt.Errorf("pin lookup: %w", err)
		}
	}
	return "", ErrPINSpaceExhaust
}

// randomDigits returns a string of n cryptographically random digits.
func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate pin digit: %w", err)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}

// enqueueWelcomeEmail queues the first-contact email carrying the
// athlete's kiosk PIN.
func enqueueWelcomeEmail(ctx context.Context, biz business.Business, a athlete.Athlete, deps RegisterAthleteDeps) error {
	payload, err := json.Marshal(EmailPayload{
		To:      a.Email,
		Subject: fmt.Sprintf("Welcome to %s", biz.Name),
		HTML: fmt.Sprintf("<p>Hi %s, you are registered at %s.</p><p>Your check-in PIN is <strong>%s</strong>.</p>",
			a.Name, biz.Name, a.PIN),
	})
	if err != nil {
		return err
	}

	entry := outbox.Entry{
		ID:          deps.GenerateID(),
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(payload),
		Status:      outbox.StatusPending,
		MaxAttempts: 5,
		CreatedAt:   deps.Now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return deps.OutboxStore.Save(ctx, entry)
}
