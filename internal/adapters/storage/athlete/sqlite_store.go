package athlete

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/athlete"
)

// SQLiteStore implements the athlete Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AthleteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, business_id, name, email, pin, date_of_birth, description, active, created_at"

// GetByID retrieves an Athlete by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Athlete, error) {
	query := "SELECT " + selectColumns + " FROM athlete WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanAthlete(row)
	if err == sql.ErrNoRows {
		return domain.Athlete{}, fmt.Errorf("athlete not found: %w", err)
	}
	return entity, err
}

// GetByPIN retrieves an Athlete by business and PIN.
// PRE: businessID and pin are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByPIN(ctx context.Context, businessID, pin string) (domain.Athlete, error) {
	query := "SELECT " + selectColumns + " FROM athlete WHERE business_id = ? AND pin = ?"

	row := s.db.QueryRowContext(ctx, query, businessID, pin)
	entity, err := scanAthlete(row)
	if err == sql.ErrNoRows {
		return domain.Athlete{}, fmt.Errorf("athlete not found: %w", err)
	}
	return entity, err
}

// Save persists an Athlete to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Athlete) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "business_id", "name", "email", "pin", "date_of_birth", "description", "active", "created_at"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{"business_id=excluded.business_id", "name=excluded.name", "email=excluded.email", "pin=excluded.pin", "date_of_birth=excluded.date_of_birth", "description=excluded.description", "active=excluded.active"}

	query := fmt.Sprintf(
		"INSERT INTO athlete (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var email, dob, description interface{}
	if entity.Email != "" {
		email = entity.Email
	}
	if entity.DateOfBirth != "" {
		dob = entity.DateOfBirth
	}
	if entity.Description != "" {
		description = entity.Description
	}

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.BusinessID,
		entity.Name,
		email,
		entity.PIN,
		dob,
		description,
		entity.Active,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an Athlete from the database.
// PRE: id is non-empty
// POST: Entity and its group memberships are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_member WHERE athlete_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM athlete WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByBusinessID retrieves all athletes of a business ordered by name.
// PRE: businessID is non-empty
// POST: Returns matching athletes
func (s *SQLiteStore) ListByBusinessID(ctx context.Context, businessID string) ([]domain.Athlete, error) {
	query := "SELECT " + selectColumns + " FROM athlete WHERE business_id = ? ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAthletes(rows)
}

// ListByIDs retrieves athletes by their IDs. Missing IDs are skipped,
// not errors.
// PRE: none
// POST: Returns athletes for the IDs that exist, ordered by name
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Athlete, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	query := "SELECT " + selectColumns + " FROM athlete WHERE id IN (" + placeholders + ") ORDER BY name"

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAthletes(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAthlete(row rowScanner) (domain.Athlete, error) {
	var entity domain.Athlete
	var createdAt string
	var email, dob, description sql.NullString
	err := row.Scan(
		&entity.ID,
		&entity.BusinessID,
		&entity.Name,
		&email,
		&entity.PIN,
		&dob,
		&description,
		&entity.Active,
		&createdAt,
	)
	if err != nil {
		return domain.Athlete{}, err
	}
	if email.Valid {
		entity.Email = email.String
	}
	if dob.Valid {
		entity.DateOfBirth = dob.String
	}
	if description.Valid {
		entity.Description = description.String
	}
	entity.CreatedAt, err = storage.ParseStoredTime(createdAt)
	if err != nil {
		return domain.Athlete{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

func scanAthletes(rows *sql.Rows) ([]domain.Athlete, error) {
	var results []domain.Athlete
	for rows.Next() {
		entity, err := scanAthlete(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
