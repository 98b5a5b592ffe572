package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/schedule"
)

// SQLiteStore implements the schedule Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ScheduleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, group_id, day, start_time, end_time"

// GetByID retrieves a TeamSchedule by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.TeamSchedule, error) {
	query := "SELECT " + selectColumns + " FROM team_schedule WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return domain.TeamSchedule{}, fmt.Errorf("schedule not found: %w", err)
	}
	return entity, err
}

// GetByGroupAndDay retrieves the schedule row for one weekday of a group.
// PRE: groupID and day are non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByGroupAndDay(ctx context.Context, groupID, day string) (domain.TeamSchedule, error) {
	query := "SELECT " + selectColumns + " FROM team_schedule WHERE group_id = ? AND day = ?"

	row := s.db.QueryRowContext(ctx, query, groupID, day)
	entity, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return domain.TeamSchedule{}, fmt.Errorf("schedule not found: %w", err)
	}
	return entity, err
}

// Save persists a TeamSchedule to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); the (group_id, day)
// uniqueness constraint makes Save an upsert per weekday as well
func (s *SQLiteStore) Save(ctx context.Context, entity domain.TeamSchedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "group_id", "day", "start_time", "end_time"}
	placeholders := []string{"?", "?", "?", "?", "?"}
	updates := []string{"group_id=excluded.group_id", "day=excluded.day", "start_time=excluded.start_time", "end_time=excluded.end_time"}

	query := fmt.Sprintf(
		"INSERT INTO team_schedule (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.GroupID,
		entity.Day,
		entity.StartTime,
		entity.EndTime,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes a TeamSchedule from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM team_schedule WHERE id = ?", id)
	return err
}

// ListByGroupID retrieves all schedule rows of a group.
// PRE: groupID is non-empty
// POST: Returns the group's rows, at most one per weekday
func (s *SQLiteStore) ListByGroupID(ctx context.Context, groupID string) ([]domain.TeamSchedule, error) {
	query := "SELECT " + selectColumns + " FROM team_schedule WHERE group_id = ? ORDER BY day"

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.TeamSchedule
	for rows.Next() {
		entity, err := scanSchedule(rows)
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

func scanSchedule(row rowScanner) (domain.TeamSchedule, error) {
	var entity domain.TeamSchedule
	err := row.Scan(
		&entity.ID,
		&entity.GroupID,
		&entity.Day,
		&entity.StartTime,
		&entity.EndTime,
	)
	if err != nil {
		return domain.TeamSchedule{}, err
	}
	return entity, nil
}
