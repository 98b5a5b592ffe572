package group

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/group"
)

// SQLiteStore implements the group Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new GroupStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const selectColumns = "id, business_id, name, category, created_at"

// GetByID retrieves an AthleteGroup by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.AthleteGroup, error) {
	query := "SELECT " + selectColumns + " FROM athlete_group WHERE id = ?"

	row := s.db.QueryRowContext(ctx, query, id)
	entity, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return domain.AthleteGroup{}, fmt.Errorf("group not found: %w", err)
	}
	return entity, err
}

// Save persists an AthleteGroup to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.AthleteGroup) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Upsert implementation
	fields := []string{"id", "business_id", "name", "category", "created_at"}
	placeholders := []string{"?", "?", "?", "?", "?"}
	updates := []string{"business_id=excluded.business_id", "name=excluded.name", "category=excluded.category"}

	query := fmt.Sprintf(
		"INSERT INTO athlete_group (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	_, err = tx.ExecContext(ctx, query,
		entity.ID,
		entity.BusinessID,
		entity.Name,
		entity.Category,
		entity.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Delete removes an AthleteGroup and its memberships from the database.
// PRE: id is non-empty
// POST: Entity and its junction rows are removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_member WHERE group_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM athlete_group WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListByBusinessID retrieves all groups of a business, oldest first.
// The ordering matters: category-based report requests pick the first
// group of the category from this list.
// PRE: businessID is non-empty
// POST: Returns groups ordered by created_at ascending
func (s *SQLiteStore) ListByBusinessID(ctx context.Context, businessID string) ([]domain.AthleteGroup, error) {
	query := "SELECT " + selectColumns + " FROM athlete_group WHERE business_id = ? ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.AthleteGroup
	for rows.Next() {
		entity, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// AddMember links an athlete to a group.
// PRE: groupID and athleteID are non-empty
// POST: Junction row exists; duplicate adds are no-ops
func (s *SQLiteStore) AddMember(ctx context.Context, groupID, athleteID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO group_member (group_id, athlete_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		groupID, athleteID)
	return err
}

// RemoveMember unlinks an athlete from a group.
// PRE: groupID and athleteID are non-empty
// POST: Junction row removed if present
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupID, athleteID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM group_member WHERE group_id = ? AND athlete_id = ?",
		groupID, athleteID)
	return err
}

// ListMemberIDs returns the athlete IDs in a group.
// PRE: groupID is non-empty
// POST: Returns member athlete IDs in insertion-independent stable order
func (s *SQLiteStore) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT athlete_id FROM group_member WHERE group_id = ? ORDER BY athlete_id",
		groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (domain.AthleteGroup, error) {
	var entity domain.AthleteGroup
	var createdAt string
	err := row.Scan(
		&entity.ID,
		&entity.BusinessID,
		&entity.Name,
		&entity.Category,
		&createdAt,
	)
	if err != nil {
		return domain.AthleteGroup{}, err
	}
	entity.CreatedAt, err = storage.ParseStoredTime(createdAt)
	if err != nil {
		return domain.AthleteGroup{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}
