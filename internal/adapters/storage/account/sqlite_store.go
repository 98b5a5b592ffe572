package account

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/account"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, business_id, email, password_hash, role, created_at, failed_logins, locked_until"

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := "SELECT " + selectColumns + " FROM account WHERE id = ?"
	row := s.db.QueryRowContext(ctx, query, id)

	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// GetByEmail retrieves an Account by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	query := "SELECT " + selectColumns + " FROM account WHERE email = ?"
	row := s.db.QueryRowContext(ctx, query, email)

	entity, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fields := []string{"id", "business_id", "email", "password_hash", "role", "created_at", "failed_logins", "locked_until"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"business_id=excluded.business_id",
		"email=excluded.email",
		"password_hash=excluded.password_hash",
		"role=excluded.role",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
	}

	query := fmt.Sprintf(
		"INSERT INTO account (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var businessID interface{}
	if entity.BusinessID != "" {
		businessID = entity.BusinessID
	}
	var lockedUntil interface{}
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		businessID,
		entity.Email,
		entity.PasswordHash,
		entity.Role,
		entity.CreatedAt.Format(time.RFC3339Nano),
		entity.FailedLogins,
		lockedUntil,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an Account from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	return err
}

// Count returns the total number of accounts.
// PRE: none
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count)
	return count, err
}

// scanAccount maps one account row into the domain struct.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var businessID, lockedUntil sql.NullString
	var createdAt string
	err := scan(
		&entity.ID,
		&businessID,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if err != nil {
		return domain.Account{}, err
	}
	if businessID.Valid {
		entity.BusinessID = businessID.String
	}
	entity.CreatedAt, err = storage.ParseStoredTime(createdAt)
	if err != nil {
		return domain.Account{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, err = storage.ParseStoredTime(lockedUntil.String)
		if err != nil {
			return domain.Account{}, fmt.Errorf("failed to parse locked_until: %w", err)
		}
	}
	return entity, nil
}
