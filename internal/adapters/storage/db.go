package storage

import (
	"database/sql"
	"fmt"
)

// InitDB prepares a database connection for use: pragmas plus the full
// migration chain.
// PRE: db is a valid database connection
// POST: All tables exist, WAL mode enabled, schema_version at latest
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return MigrateDB(db)
}

// migration is a single schema step. Statements must be idempotent so
// that a database created before version tracking existed can be
// re-migrated safely.
type migration struct {
	version int
	apply   func(*sql.DB) error
}

var migrations = []migration{
	{version: 1, apply: migrateBaseline},
}

// LatestSchemaVersion returns the version the chain migrates to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion reports the current schema version, 0 for a database
// that has never been migrated.
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// MigrateDB applies all migrations newer than the database's current
// version. Running it on an up-to-date database is a no-op.
// PRE: db is a valid database connection
// POST: schema_version equals LatestSchemaVersion
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL DEFAULT (datetime('now')))"); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// migrateBaseline creates the full baseline schema.
func migrateBaseline(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS business (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		business_id TEXT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		FOREIGN KEY (business_id) REFERENCES business(id)
	);

	CREATE TABLE IF NOT EXISTS athlete_group (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (business_id) REFERENCES business(id)
	);

	CREATE TABLE IF NOT EXISTS athlete (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		pin TEXT NOT NULL,
		date_of_birth TEXT,
		description TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		UNIQUE (business_id, pin),
		FOREIGN KEY (business_id) REFERENCES business(id)
	);

	CREATE TABLE IF NOT EXISTS group_member (
		group_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL,
		PRIMARY KEY (group_id, athlete_id),
		FOREIGN KEY (group_id) REFERENCES athlete_group(id),
		FOREIGN KEY (athlete_id) REFERENCES athlete(id)
	);

	CREATE TABLE IF NOT EXISTS team_schedule (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		day TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		UNIQUE (group_id, day),
		FOREIGN KEY (group_id) REFERENCES athlete_group(id)
	);

	CREATE TABLE IF NOT EXISTS checkin (
		id TEXT PRIMARY KEY,
		athlete_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (athlete_id) REFERENCES athlete(id)
	);
	CREATE INDEX IF NOT EXISTS idx_checkin_athlete_created
		ON checkin(athlete_id, created_at);

	CREATE TABLE IF NOT EXISTS reporting (
		business_id TEXT PRIMARY KEY,
		enabled INTEGER NOT NULL DEFAULT 0,
		duration TEXT NOT NULL DEFAULT 'weekly',
		email TEXT NOT NULL DEFAULT '',
		pin_length INTEGER NOT NULL DEFAULT 4,
		FOREIGN KEY (business_id) REFERENCES business(id)
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create baseline schema: %w", err)
	}
	return nil
}
