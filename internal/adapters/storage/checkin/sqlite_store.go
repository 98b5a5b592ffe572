package checkin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/checkin"
)

// SQLiteStore implements the checkin Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new CheckInStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a CheckIn by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.CheckIn, error) {
	query := "SELECT id, athlete_id, created_at FROM checkin WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanCheckIn(row)
	if err == sql.ErrNoRows {
		return domain.CheckIn{}, fmt.Errorf("checkin not found: %w", err)
	}
	return entity, err
}

// Save persists a CheckIn to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.CheckIn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkin (id, athlete_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET athlete_id=excluded.athlete_id, created_at=excluded.created_at`,
		entity.ID,
		entity.AthleteID,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Delete removes a CheckIn from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkin WHERE id = ?", id)
	return err
}

// ListByAthleteIDsAndRange returns the check-ins of the given athletes
// inside [from, to], ordered by created_at ascending.
// PRE: from is not after to
// POST: Returns matching rows in chronological order
func (s *SQLiteStore) ListByAthleteIDsAndRange(ctx context.Context, athleteIDs []string, from, to time.Time) ([]domain.CheckIn, error) {
	if len(athleteIDs) == 0 {
		return nil, nil
	}

	query := "SELECT id, athlete_id, created_at FROM checkin WHERE athlete_id IN (" +
		placeholders(len(athleteIDs)) + ") AND created_at >= ? AND created_at <= ? ORDER BY created_at ASC"

	args := make([]any, 0, len(athleteIDs)+2)
	for _, id := range athleteIDs {
		args = append(args, id)
	}
	args = append(args, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

// CountByMonth tallies check-ins per calendar month for the given
// athletes inside [from, to].
// PRE: from is not after to
// POST: Returns one row per month that has check-ins, oldest first
func (s *SQLiteStore) CountByMonth(ctx context.Context, athleteIDs []string, from, to time.Time) ([]MonthCount, error) {
	if len(athleteIDs) == 0 {
		return nil, nil
	}

	query := "SELECT strftime('%Y', created_at), strftime('%m', created_at), COUNT(*) FROM checkin WHERE athlete_id IN (" +
		placeholders(len(athleteIDs)) + ") AND created_at >= ? AND created_at <= ? GROUP BY 1, 2 ORDER BY 1, 2"

	args := make([]any, 0, len(athleteIDs)+2)
	for _, id := range athleteIDs {
		args = append(args, id)
	}
	args = append(args, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MonthCount
	for rows.Next() {
		var year, month, count int
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, err
		}
		results = append(results, MonthCount{Year: year, Month: time.Month(month), Count: count})
	}
	return results, rows.Err()
}

// ListRecent returns the newest check-ins of the given athletes.
// PRE: limit > 0
// POST: Returns up to limit rows, newest first
func (s *SQLiteStore) ListRecent(ctx context.Context, athleteIDs []string, limit int) ([]domain.CheckIn, error) {
	if len(athleteIDs) == 0 {
		return nil, nil
	}

	query := "SELECT id, athlete_id, created_at FROM checkin WHERE athlete_id IN (" +
		placeholders(len(athleteIDs)) + ") ORDER BY created_at DESC LIMIT ?"

	args := make([]any, 0, len(athleteIDs)+1)
	for _, id := range athleteIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCheckIns(rows)
}

func placeholders(n int) string {
	return strings.Repeat("?, ", n-1) + "?"
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckIn(row rowScanner) (domain.CheckIn, error) {
	var entity domain.CheckIn
	var createdAt string
	err := row.Scan(
		&entity.ID,
		&entity.AthleteID,
		&createdAt,
	)
	if err != nil {
		return domain.CheckIn{}, err
	}
	entity.CreatedAt, err = storage.ParseStoredTime(createdAt)
	if err != nil {
		return domain.CheckIn{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

func scanCheckIns(rows *sql.Rows) ([]domain.CheckIn, error) {
	var results []domain.CheckIn
	for rows.Next() {
		entity, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}
