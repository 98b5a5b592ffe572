package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"rollcall/internal/domain/account"
)

type mockAccountStore struct {
	accounts map[string]account.Account // keyed by email
	count    int
	getErr   error
}

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	if m.getErr != nil {
		return account.Account{}, m.getErr
	}
	a, ok := m.accounts[email]
	if !ok {
		return account.Account{}, fmt.Errorf("account not found: %w", sql.ErrNoRows)
	}
	return a, nil
}

func (m *mockAccountStore) Save(ctx context.Context, a account.Account) error {
	m.accounts[a.Email] = a
	return nil
}

func (m *mockAccountStore) Count(ctx context.Context) (int, error) {
	return m.count, nil
}

func loginAccount(t *testing.T, password string) account.Account {
	t.Helper()
	acc := account.Account{
		ID:         "acct-1",
		Email:      "owner@example.com",
		Role:       account.RoleOwner,
		BusinessID: "b-1",
		CreatedAt:  time.Now(),
	}
	if err := acc.SetPassword(password); err != nil {
		t.Fatalf("set password: %v", err)
	}
	return acc
}

func TestExecuteLogin(t *testing.T) {
	const password = "correct-horse-battery"

	t.Run("valid credentials", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}
		acc := loginAccount(t, password)
		store.accounts[acc.Email] = acc

		result, err := ExecuteLogin(context.Background(), LoginInput{Email: "Owner@Example.com ", Password: password}, LoginDeps{AccountStore: store})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Account.ID != "acct-1" {
			t.Errorf("unexpected account %+v", result.Account)
		}
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}
		acc := loginAccount(t, password)
		store.accounts[acc.Email] = acc

		_, unknownErr := ExecuteLogin(context.Background(), LoginInput{Email: "nobody@example.com", Password: password}, LoginDeps{AccountStore: store})
		_, wrongErr := ExecuteLogin(context.Background(), LoginInput{Email: acc.Email, Password: "not-the-password"}, LoginDeps{AccountStore: store})
		if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for both, got %v and %v", unknownErr, wrongErr)
		}
	})

	t.Run("failed attempts accumulate and lock the account", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}
		acc := loginAccount(t, password)
		store.accounts[acc.Email] = acc

		for i := 0; i < 5; i++ {
			if _, err := ExecuteLogin(context.Background(), LoginInput{Email: acc.Email, Password: "wrong"}, LoginDeps{AccountStore: store}); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
			}
		}
		if _, err := ExecuteLogin(context.Background(), LoginInput{Email: acc.Email, Password: password}, LoginDeps{AccountStore: store}); !errors.Is(err, ErrAccountLocked) {
			t.Errorf("expected ErrAccountLocked, got %v", err)
		}
	})

	t.Run("failing account store is not invalid credentials", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}, getErr: errors.New("database is locked")}

		_, err := ExecuteLogin(context.Background(), LoginInput{Email: "owner@example.com", Password: password}, LoginDeps{AccountStore: store})
		if err == nil {
			t.Fatal("expected error when the account store fails")
		}
		if errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("store failure reported as ErrInvalidCredentials: %v", err)
		}
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}
		acc := loginAccount(t, password)
		acc.FailedLogins = 3
		store.accounts[acc.Email] = acc

		if _, err := ExecuteLogin(context.Background(), LoginInput{Email: acc.Email, Password: password}, LoginDeps{AccountStore: store}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.accounts[acc.Email].FailedLogins; got != 0 {
			t.Errorf("expected counter reset, got %d", got)
		}
	})
}

func TestExecuteCreateAccount(t *testing.T) {
	deps := func(store *mockAccountStore) CreateAccountDeps {
		return CreateAccountDeps{
			AccountStore: store,
			GenerateID:   func() string { return "acct-new" },
			Now:          func() time.Time { return time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC) },
		}
	}

	t.Run("creates owner with hashed password", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}

		acc, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
			Email:      "Owner@Example.com",
			Password:   "correct-horse-battery",
			Role:       account.RoleOwner,
			BusinessID: "b-1",
		}, deps(store))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if acc.Email != "owner@example.com" {
			t.Errorf("email not normalized: %q", acc.Email)
		}
		if acc.PasswordHash == "" || acc.PasswordHash == "correct-horse-battery" {
			t.Errorf("password not hashed")
		}
		if err := acc.CheckPassword("correct-horse-battery"); err != nil {
			t.Errorf("stored hash does not verify: %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}
		existing := loginAccount(t, "correct-horse-battery")
		store.accounts[existing.Email] = existing

		_, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
			Email:      existing.Email,
			Password:   "another-long-password",
			Role:       account.RoleOwner,
			BusinessID: "b-1",
		}, deps(store))
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("expected ErrEmailAlreadyExists, got %v", err)
		}
	})

	t.Run("owner without business rejected", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}

		if _, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
			Email:    "owner@example.com",
			Password: "correct-horse-battery",
			Role:     account.RoleOwner,
		}, deps(store)); !errors.Is(err, ErrOwnerRequiresBusiness) {
			t.Errorf("expected ErrOwnerRequiresBusiness, got %v", err)
		}
	})

	t.Run("failing email lookup aborts instead of passing the email", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}, getErr: errors.New("database is locked")}

		_, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
			Email:      "owner@example.com",
			Password:   "correct-horse-battery",
			Role:       account.RoleOwner,
			BusinessID: "b-1",
		}, deps(store))
		if err == nil {
			t.Fatal("expected error when the account store fails")
		}
		if errors.Is(err, ErrEmailAlreadyExists) {
			t.Errorf("store failure reported as ErrEmailAlreadyExists: %v", err)
		}
		if len(store.accounts) != 0 {
			t.Errorf("account saved despite unverified email")
		}
	})

	t.Run("short password rejected", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}

		if _, err := ExecuteCreateAccount(context.Background(), CreateAccountInput{
			Email:    "admin@example.com",
			Password: "short",
			Role:     account.RoleAdmin,
		}, deps(store)); !errors.Is(err, account.ErrPasswordTooShort) {
			t.Errorf("expected ErrPasswordTooShort, got %v", err)
		}
	})
}

func TestSeedAdminAccount(t *testing.T) {
	deps := func(store *mockAccountStore) CreateAccountDeps {
		return CreateAccountDeps{
			AccountStore: store,
			GenerateID:   func() string { return "acct-admin" },
			Now:          time.Now,
		}
	}

	t.Run("seeds when table is empty", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}

		seeded, err := SeedAdminAccount(context.Background(), "admin@example.com", "correct-horse-battery", deps(store))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !seeded {
			t.Errorf("expected admin to be seeded")
		}
		if got := store.accounts["admin@example.com"]; got.Role != account.RoleAdmin {
			t.Errorf("expected admin role, got %+v", got)
		}
	})

	t.Run("skips when accounts exist", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}, count: 1}

		seeded, err := SeedAdminAccount(context.Background(), "admin@example.com", "correct-horse-battery", deps(store))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seeded {
			t.Errorf("expected no seeding")
		}
	})

	t.Run("skips without credentials", func(t *testing.T) {
		store := &mockAccountStore{accounts: map[string]account.Account{}}

		seeded, err := SeedAdminAccount(context.Background(), "", "", deps(store))
		if err != nil || seeded {
			t.Errorf("expected silent skip, got seeded=%v err=%v", seeded, err)
		}
	})
}
