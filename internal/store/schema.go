package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the SQLite run store.
const schemaV1 = `
-- One row per completed strategy run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    strategy TEXT NOT NULL,
    cycles INTEGER NOT NULL,
    cohort_size REAL NOT NULL,
    effect REAL NOT NULL,
    states TEXT NOT NULL,      -- JSON array, preserves state order
    increments TEXT NOT NULL,  -- JSON array of per-cycle increments
    created_at TEXT NOT NULL
);

-- Occupancy time series, one row per (cycle, state)
CREATE TABLE IF NOT EXISTS occupancy (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    cycle INTEGER NOT NULL,
    state TEXT NOT NULL,
    share REAL NOT NULL,
    PRIMARY KEY (run_id, cycle, state)
);
CREATE INDEX IF NOT EXISTS idx_occupancy_run ON occupancy(run_id, cycle);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the schema if it does not exist and records the
// schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}
