package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the database schema version
const CurrentSchemaVersion = 1

// Migration represents a database schema migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Orders table. The version column is the optimistic-concurrency token
-- compared on every save.
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    external_ref TEXT NOT NULL,
    kind TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'NOT_STARTED',
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_external_ref ON orders(external_ref);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

-- Order lines. Position preserves creation order.
CREATE TABLE IF NOT EXISTS order_lines (
    order_id TEXT NOT NULL,
    id TEXT NOT NULL,
    item_id TEXT NOT NULL,
    target_qty INTEGER NOT NULL,
    verified_qty INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    PRIMARY KEY (order_id, id),
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_order_lines_item ON order_lines(item_id);

-- Accepted tag scans per line. The unique constraint is the storage-level
-- backstop for duplicate rejection.
CREATE TABLE IF NOT EXISTS scanned_tags (
    order_id TEXT NOT NULL,
    line_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    scanned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (order_id, line_id, tag_id),
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_scanned_tags_order ON scanned_tags(order_id);

-- Append-only audit trail of submitted verifications
CREATE TABLE IF NOT EXISTS verification_submissions (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    status TEXT NOT NULL,
    total_target INTEGER NOT NULL,
    total_found INTEGER NOT NULL,
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_submissions_order ON verification_submissions(order_id);

-- Tag-to-item assignments consumed by the tag resolver
CREATE TABLE IF NOT EXISTS tag_assignments (
    tag_id TEXT PRIMARY KEY,
    item_id TEXT NOT NULL,
    assigned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tag_assignments_item ON tag_assignments(item_id);
`

const migrationV1Down = `
DROP TABLE IF EXISTS tag_assignments;
DROP TABLE IF EXISTS verification_submissions;
DROP TABLE IF EXISTS scanned_tags;
DROP TABLE IF EXISTS order_lines;
DROP TABLE IF EXISTS orders;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	currentVersion := 0
	if err == sql.ErrNoRows {
		// No migrations applied yet
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		err = db.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		}
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		currentVersion = migration.Version
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion int
	err := db.QueryRowContext(ctx,
		"SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", currentVersion, err)
	}

	_, err = db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion)
	if err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", currentVersion, err)
	}

	return nil
}
