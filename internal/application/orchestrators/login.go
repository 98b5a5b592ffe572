package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rollcall/internal/domain/account"
)

// Errors surfaced by the login flow.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
)

// LoginAccountStore defines the account persistence login needs.
type LoginAccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries login form input.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the authenticated account.
type LoginResult struct {
	Account account.Account
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore LoginAccountStore
}

// ExecuteLogin verifies credentials and tracks failed attempts.
// Unknown emails and wrong passwords produce the same error so the
// login form never reveals which emails exist.
// PRE: Email and Password are the raw form values
// POST: Failed attempts recorded; counter reset on success
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	acc, err := deps.AccountStore.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Info("auth_event", "event", "login_unknown_email")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("account lookup: %w", err)
	}

	if acc.IsLocked() {
		slog.Warn("auth_event", "event", "login_locked", "account_id", acc.ID)
		return LoginResult{}, ErrAccountLocked
	}

	if err := acc.CheckPassword(input.Password); err != nil {
		acc.RecordFailedLogin()
		if saveErr := deps.AccountStore.Save(ctx, acc); saveErr != nil {
			slog.Error("auth_event", "event", "failed_login_save_error", "account_id", acc.ID, "error", saveErr.Error())
		}
		slog.Info("auth_event", "event", "login_failed", "account_id", acc.ID, "failed_logins", acc.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if acc.FailedLogins > 0 {
		acc.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acc); err != nil {
			slog.Error("auth_event", "event", "reset_failed_logins_error", "account_id", acc.ID, "error", err.Error())
		}
	}

	slog.Info("auth_event", "event", "login_succeeded", "account_id", acc.ID, "role", acc.Role)
	return LoginResult{Account: acc}, nil
}
