package orchestrators

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuin/goldmark"

	"rollcall/internal/domain/athlete"
	"rollcall/internal/domain/business"
	"rollcall/internal/domain/checkin"
	"rollcall/internal/domain/outbox"
)

// Errors surfaced by the kiosk check-in flow.
var (
	ErrUnknownPIN      = errors.New("no athlete with this PIN")
	ErrInactiveAthlete = errors.New("inactive athletes cannot check in")
)

// CheckInBusinessStore defines the business lookup needed at the kiosk.
type CheckInBusinessStore interface {
	GetByID(ctx context.Context, id string) (business.Business, error)
}

// CheckInAthleteStore defines the athlete lookup needed at the kiosk.
type CheckInAthleteStore interface {
	GetByPIN(ctx context.Context, businessID, pin string) (athlete.Athlete, error)
}

// CheckInStore defines the interface for check-in persistence.
type CheckInStore interface {
	Save(ctx context.Context, c checkin.CheckIn) error
}

// OutboxEnqueuer is the write side of the outbox used by orchestrators.
type OutboxEnqueuer interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// CheckInAthleteInput carries input for the kiosk check-in.
type CheckInAthleteInput struct {
	BusinessID string
	PIN        string
}

// CheckInAthleteResult carries the outcome shown on the kiosk.
type CheckInAthleteResult struct {
	CheckinID   string
	AthleteID   string
	AthleteName string
}

// CheckInAthleteDeps holds dependencies for CheckInAthlete.
type CheckInAthleteDeps struct {
	BusinessStore CheckInBusinessStore
	AthleteStore  CheckInAthleteStore
	CheckInStore  CheckInStore
	OutboxStore   OutboxEnqueuer // optional: nil skips the confirmation email
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteCheckInAthlete coordinates the kiosk check-in: PIN lookup
// within the business, persistence of one immutable check-in row, and
// an asynchronous confirmation email.
// PRE: BusinessID and PIN are non-empty
// POST: CheckIn persisted with CreatedAt = server UTC now; email queued
// INVARIANT: A check-in row is never updated after creation
func ExecuteCheckInAthlete(ctx context.Context, input CheckInAthleteInput, deps CheckInAthleteDeps) (CheckInAthleteResult, error) {
	if input.BusinessID == "" || input.PIN == "" {
		return CheckInAthleteResult{}, ErrUnknownPIN
	}

	biz, err := deps.BusinessStore.GetByID(ctx, input.BusinessID)
	if err != nil {
		return CheckInAthleteResult{}, fmt.Errorf("business lookup: %w", err)
	}

	a, err := deps.AthleteStore.GetByPIN(ctx, input.BusinessID, input.PIN)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("checkin_event", "event", "unknown_pin", "business_id", input.BusinessID)
		return CheckInAthleteResult{}, ErrUnknownPIN
	}
	if err != nil {
		return CheckInAthleteResult{}, fmt.Errorf("athlete lookup: %w", err)
	}
	if !a.Active {
		return CheckInAthleteResult{}, ErrInactiveAthlete
	}

	c := checkin.CheckIn{
		ID:        deps.GenerateID(),
		AthleteID: a.ID,
		CreatedAt: deps.Now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return CheckInAthleteResult{}, err
	}
	if err := deps.CheckInStore.Save(ctx, c); err != nil {
		return CheckInAthleteResult{}, err
	}

	if deps.OutboxStore != nil && a.Email != "" {
		if err := enqueueConfirmationEmail(ctx, biz, a, c, deps); err != nil {
			// The check-in itself succeeded; a lost confirmation email
			// must not fail the kiosk interaction.
			slog.Error("checkin_email_enqueue_failed", "checkin_id", c.ID, "error", err.Error())
		}
	}

	slog.Info("checkin_event", "event", "checked_in", "checkin_id", c.ID, "athlete_id", a.ID, "business_id", biz.ID)

	return CheckInAthleteResult{
		CheckinID:   c.ID,
		AthleteID:   a.ID,
		AthleteName: a.Name,
	}, nil
}

// enqueueConfirmationEmail renders the business's markdown message and
// queues the confirmation through the outbox.
func enqueueConfirmationEmail(ctx context.Context, biz business.Business, a athlete.Athlete, c checkin.CheckIn, deps CheckInAthleteDeps) error {
	body, err := renderBusinessMessage(biz, a)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(EmailPayload{
		To:      a.Email,
		Subject: fmt.Sprintf("%s: check-in confirmed", biz.Name),
		HTML:    body,
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
		CreatedAt:   c.CreatedAt,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return deps.OutboxStore.Save(ctx, entry)
}

// renderBusinessMessage converts the business's markdown check-in
// message into the HTML email body.
func renderBusinessMessage(biz business.Business, a athlete.Athlete) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<p>Hi %s, your check-in at %s is confirmed.</p>\n", a.Name, biz.Name)
	if biz.Message != "" {
		if err := goldmark.Convert([]byte(biz.Message), &buf); err != nil {
			return "", fmt.Errorf("render business message: %w", err)
		}
	}
	return buf.String(), nil
}
