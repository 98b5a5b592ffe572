package reporting

import (
	"context"
	"database/sql"
	"fmt"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/reporting"
)

// SQLiteStore implements the reporting Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ReportingStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "business_id, enabled, duration, email, pin_length"

// GetByBusinessID retrieves the reporting settings of a business.
// PRE: businessID is non-empty
// POST: Returns the settings or an error if not found
func (s *SQLiteStore) GetByBusinessID(ctx context.Context, businessID string) (domain.Settings, error) {
	query := "SELECT " + selectColumns + " FROM reporting WHERE business_id = ?"

	row := s.db.QueryRowContext(ctx, query, businessID)
	entity, err := scanSettings(row)
	if err == sql.ErrNoRows {
		return domain.Settings{}, fmt.Errorf("reporting settings not found: %w", err)
	}
	return entity, err
}

// Save persists reporting settings.
// PRE: entity has been validated
// POST: The business's single settings row is inserted or replaced
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reporting (business_id, enabled, duration, email, pin_length)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(business_id) DO UPDATE SET
		   enabled=excluded.enabled, duration=excluded.duration,
		   email=excluded.email, pin_length=excluded.pin_length`,
		entity.BusinessID,
		entity.Enabled,
		entity.Duration,
		entity.Email,
		entity.PINLength,
	)
	return err
}

// ListEnabled retrieves all settings rows with reporting switched on.
// PRE: none
// POST: Returns settings for every business that wants scheduled reports
func (s *SQLiteStore) ListEnabled(ctx context.Context) ([]domain.Settings, error) {
	query := "SELECT " + selectColumns + " FROM reporting WHERE enabled = 1"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Settings
	for rows.Next() {
		entity, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (domain.Settings, error) {
	var entity domain.Settings
	err := row.Scan(
		&entity.BusinessID,
		&entity.Enabled,
		&entity.Duration,
		&entity.Email,
		&entity.PINLength,
	)
	if err != nil {
		return domain.Settings{}, err
	}
	return entity, nil
}
