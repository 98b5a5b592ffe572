package business

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/business"
)

// SQLiteStore implements the business Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new BusinessStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, name, timezone, message, status, created_at"

// GetByID retrieves a Business by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Business, error) {
	query := "SELECT " + selectColumns + " FROM business WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return domain.Business{}, fmt.Errorf("business not found: %w", err)
	}
	return entity, err
}

// Save persists a Business to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Business) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "name", "timezone", "message", "status", "created_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?"}
	updates := []string{"name=excluded.name", "timezone=excluded.timezone", "message=excluded.message", "status=excluded.status"}

	query := fmt.Sprintf(
		"INSERT INTO business (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		entity.Timezone,
		entity.Message,
		entity.Status,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a Business from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM business WHERE id = ?", id)
	return err
}

// List retrieves all businesses ordered by creation date.
// PRE: none
// POST: Returns all businesses, oldest first
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Business, error) {
	query := "SELECT " + selectColumns + " FROM business ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// ListByStatus retrieves businesses with the given status, oldest first.
// PRE: status is non-empty
// POST: Returns matching businesses
func (s *SQLiteStore) ListByStatus(ctx context.Context, status string) ([]domain.Business, error) {
	query := "SELECT " + selectColumns + " FROM business WHERE status = ? ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBusinesses(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (domain.Business, error) {
	var entity domain.Business
	var createdAt string
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Timezone,
		&entity.Message,
		&entity.Status,
		&createdAt,
	)
	if err != nil {
		return domain.Business{}, err
	}
	entity.CreatedAt, err = storage.ParseStoredTime(createdAt)
	if err != nil {
		return domain.Business{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

func scanBusinesses(rows *sql.Rows) ([]domain.Business, error) {
	var results []domain.Business
	for rows.Next() {
		entity, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
