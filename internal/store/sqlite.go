package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore creates a run store rooted at projectRoot. The
// database lives at .cohort/runs.db, created on first use.
func NewSQLiteRunStore(projectRoot string) (*SQLiteRunStore, error) {
	cohortDir := filepath.Join(projectRoot, ".cohort")
	if err := os.MkdirAll(cohortDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .cohort directory: %w", err)
	}

	dbPath := filepath.Join(cohortDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// SaveRun persists a run and its full occupancy series in one
// transaction. A missing ID is assigned; a missing CreatedAt is set to
// now.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	states, err := json.Marshal(rec.States)
	if err != nil {
		return "", fmt.Errorf("failed to encode states: %w", err)
	}
	increments, err := json.Marshal(rec.Increments)
	if err != nil {
		return "", fmt.Errorf("failed to encode increments: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, model, strategy, cycles, cohort_size, effect, states, increments, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Model, rec.Strategy, rec.Cycles, rec.CohortSize, rec.Effect,
		string(states), string(increments), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO occupancy (run_id, cycle, state, share) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare occupancy insert: %w", err)
	}
	defer stmt.Close()

	for cycle, dist := range rec.Dist {
		for i, share := range dist {
			if _, err := stmt.ExecContext(ctx, rec.ID, cycle, rec.States[i], share); err != nil {
				return "", fmt.Errorf("failed to insert occupancy (cycle %d): %w", cycle, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return rec.ID, nil
}

// ListRuns returns summaries of all persisted runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, strategy, cycles, effect, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var created string
		if err := rows.Scan(&r.ID, &r.Model, &r.Strategy, &r.Cycles, &r.Effect, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the full record for a run, or nil if not found.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	var rec RunRecord
	var states, increments, created string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, model, strategy, cycles, cohort_size, effect, states, increments, created_at
		FROM runs WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Model, &rec.Strategy, &rec.Cycles, &rec.CohortSize, &rec.Effect,
			&states, &increments, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	if err := json.Unmarshal([]byte(states), &rec.States); err != nil {
		return nil, fmt.Errorf("failed to decode states: %w", err)
	}
	if err := json.Unmarshal([]byte(increments), &rec.Increments); err != nil {
		return nil, fmt.Errorf("failed to decode increments: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	index := make(map[string]int, len(rec.States))
	for i, name := range rec.States {
		index[name] = i
	}

	rec.Dist = make([][]float64, rec.Cycles+1)
	for t := range rec.Dist {
		rec.Dist[t] = make([]float64, len(rec.States))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cycle, state, share FROM occupancy WHERE run_id = ? ORDER BY cycle`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cycle int
		var state string
		var share float64
		if err := rows.Scan(&cycle, &state, &share); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy: %w", err)
		}
		i, ok := index[state]
		if !ok || cycle < 0 || cycle >= len(rec.Dist) {
			return nil, fmt.Errorf("occupancy row (%d, %s) does not match run %s", cycle, state, id)
		}
		rec.Dist[cycle][i] = share
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rec, nil
}

// Close closes the underlying database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
