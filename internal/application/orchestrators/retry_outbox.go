package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rollcall/internal/adapters/email"
	"rollcall/internal/domain/outbox"
)

// OutboxStore defines the interface for outbox persistence used by the
// processor.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// ActionExecutor performs the external action for one outbox entry and
// returns the provider's external ID on success.
type ActionExecutor interface {
	Execute(ctx context.Context, e outbox.Entry) (externalID string, err error)
}

// EmailPayload is the JSON payload stored for email outbox entries.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// EmailExecutor delivers email outbox entries through an email sender.
type EmailExecutor struct {
	Sender email.Sender
	From   string
}

// Execute sends the email described by the entry's payload.
func (x *EmailExecutor) Execute(ctx context.Context, e outbox.Entry) (string, error) {
	var payload EmailPayload
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
		return "", fmt.Errorf("decode email payload: %w", err)
	}
	resp, err := x.Sender.Send(ctx, email.SendRequest{
		To:      []string{payload.To},
		From:    x.From,
		Subject: payload.Subject,
		HTML:    payload.HTML,
	})
	if err != nil {
		return "", err
	}
	return resp.MessageID, nil
}

// OutboxProcessor retries pending outbox entries with exponential
// backoff.
type OutboxProcessor struct {
	store     OutboxStore
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a processor with default retry timing.
func NewOutboxProcessor(store OutboxStore, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
}

// ProcessPending processes a batch of pending entries. Returns the
// number of entries processed.
// PRE: store and executors are configured
// POST: Each due entry has been attempted once, with status updated
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}

	processed := 0
	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "error", err.Error())
			continue
		}
		processed++
	}
	return processed, nil
}

// processEntry attempts a single entry, respecting backoff.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry outbox.Entry) error {
	if !entry.CanRetry() {
		return nil
	}

	// Honour the backoff window between attempts.
	if entry.Attempts > 0 {
		nextAttempt := entry.LastAttemptedAt.Add(entry.NextRetryDelay(p.baseDelay, p.maxDelay))
		if time.Now().Before(nextAttempt) {
			return nil
		}
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		return fmt.Errorf("no executor for action type %q", entry.ActionType)
	}

	entry.MarkAttempt()
	if err := p.store.Save(ctx, entry); err != nil {
		return err
	}

	externalID, err := executor.Execute(ctx, entry)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed",
			"entry_id", entry.ID,
			"action_type", entry.ActionType,
			"attempts", entry.Attempts,
			"error", err.Error())
		return p.store.Save(ctx, entry)
	}

	entry.MarkSuccess(externalID)
	slog.Info("outbox_action_succeeded",
		"entry_id", entry.ID,
		"action_type", entry.ActionType,
		"external_id", externalID)
	return p.store.Save(ctx, entry)
}

// ProcessSingle processes one entry by ID regardless of its backoff
// window. Used by operators to force a retry.
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return errors.New("entry is in a terminal state")
	}
	entry.LastAttemptedAt = time.Time{}
	return p.processEntry(ctx, entry)
}

// AbandonEntry marks an entry as abandoned so it is never retried.
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// StartBackgroundWorker runs the processor on a fixed interval until
// stopCh closes.
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				processed, err := processor.ProcessPending(context.Background())
				if err != nil {
					slog.Error("outbox_worker_error", "error", err.Error())
				} else if processed > 0 {
					slog.Info("outbox_worker_run", "processed", processed)
				}
			case <-stopCh:
				return
			}
		}
	}()
}
