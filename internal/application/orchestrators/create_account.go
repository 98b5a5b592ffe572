package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rollcall/internal/domain/account"
)

// Errors surfaced by account creation.
var (
	ErrEmailAlreadyExists    = errors.New("an account with this email already exists")
	ErrOwnerRequiresBusiness = errors.New("owner accounts require a business")
)

// CreateAccountStore defines the account persistence creation needs.
type CreateAccountStore interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for creating an account.
type CreateAccountInput struct {
	Email      string
	Password   string
	Role       string
	BusinessID string // required for owners, empty for admins
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore CreateAccountStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteCreateAccount creates a dashboard login with a unique email.
// PRE: Password meets the length policy
// POST: Account persisted with a bcrypt hash, never the plaintext
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := deps.AccountStore.GetByEmail(ctx, email)
	if err == nil {
		return account.Account{}, ErrEmailAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return account.Account{}, fmt.Errorf("email lookup: %w", err)
	}

	acc := account.Account{
		ID:         deps.GenerateID(),
		Email:      email,
		Role:       input.Role,
		BusinessID: input.BusinessID,
		CreatedAt:  deps.Now().UTC(),
	}
	if acc.Role == account.RoleOwner && acc.BusinessID == "" {
		return account.Account{}, ErrOwnerRequiresBusiness
	}
	if err := acc.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := acc.Validate(); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acc); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "account_id", acc.ID, "role", acc.Role)
	return acc, nil
}

// SeedAdminAccount creates the first admin from environment-provided
// credentials when the account table is empty. Returns false when
// accounts already exist or no credentials were provided.
func SeedAdminAccount(ctx context.Context, email, password string, deps CreateAccountDeps) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	count, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    email,
		Password: password,
		Role:     account.RoleAdmin,
	}, deps); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	slog.Info("auth_event", "event", "admin_seeded")
	return true, nil
}
