package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"imagededup/logging"
	"imagededup/types"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
	StatusCancelled = "cancelled"
	StatusListed    = "listed"
	StatusFailed    = "failed"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	paths TEXT NOT NULL,
	hasher TEXT NOT NULL,
	threshold REAL NOT NULL,
	auto_threshold REAL,
	auto_delete_all INTEGER NOT NULL DEFAULT 0,
	mode TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	images INTEGER NOT NULL DEFAULT 0,
	fingerprint_failures INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS pairs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	path_a TEXT NOT NULL,
	path_b TEXT NOT NULL,
	distance REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS deletions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	path TEXT NOT NULL,
	outcome TEXT NOT NULL,
	error TEXT,
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pairs_run ON pairs(run_id);
CREATE INDEX IF NOT EXISTS idx_deletions_run ON deletions(run_id);`

// Journal is an append-only audit log of runs. It is never read back to
// skip work.
type Journal struct {
	db *sql.DB
}

// RunInfo describes the configuration a run was started with
type RunInfo struct {
	Paths         []string
	Hasher        string
	Threshold     float64
	AutoThreshold *float64 // nil when auto deletion by distance is disabled
	AutoDeleteAll bool
	Mode          string // list, cluster or pairs
	DryRun        bool
}

// RunRecord is a journaled run as stored in the database
type RunRecord struct {
	ID                  string
	Status              string
	Mode                string
	Hasher              string
	Threshold           float64
	Paths               []string
	Images              int
	FingerprintFailures int
	StartedAt           time.Time
	FinishedAt          *time.Time
}

// InitDatabase opens the journal at dbPath, creating the schema if needed
func InitDatabase(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	logging.DebugLog("Opened journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// DB returns the underlying sql.DB for direct queries
func (j *Journal) DB() *sql.DB {
	return j.db
}

// StartRun records a new run and returns its id
func (j *Journal) StartRun(ctx context.Context, info RunInfo) (string, error) {
	id := uuid.NewString()

	paths, err := json.Marshal(info.Paths)
	if err != nil {
		return "", fmt.Errorf("cannot encode paths: %w", err)
	}

	var autoThreshold sql.NullFloat64
	if info.AutoThreshold != nil {
		autoThreshold = sql.NullFloat64{Float64: *info.AutoThreshold, Valid: true}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, paths, hasher, threshold, auto_threshold, auto_delete_all, mode, dry_run, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, now(), string(paths), info.Hasher, info.Threshold, autoThreshold,
		info.AutoDeleteAll, info.Mode, info.DryRun, StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("cannot record run: %w", err)
	}
	return id, nil
}

// RecordImages stores how many images were scanned and how many failed
func (j *Journal) RecordImages(ctx context.Context, runID string, total, failed int) error {
	_, err := j.db.ExecContext(ctx,
		"UPDATE runs SET images = ?, fingerprint_failures = ? WHERE id = ?", total, failed, runID)
	if err != nil {
		return fmt.Errorf("cannot record image counts for run %s: %w", runID, err)
	}
	return nil
}

// RecordPairs stores the surviving pairs of a run in order
func (j *Journal) RecordPairs(ctx context.Context, runID string, pairs []types.Pair) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO pairs (run_id, position, path_a, path_b, distance) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("cannot prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, pair := range pairs {
		if _, err := stmt.ExecContext(ctx, runID, i, pair.A, pair.B, pair.Distance); err != nil {
			return fmt.Errorf("cannot insert pair %s / %s: %w", pair.A, pair.B, err)
		}
	}

	return tx.Commit()
}

// RecordDeletion stores the outcome (deleted, failed or dry-run) of deleting a single path
func (j *Journal) RecordDeletion(ctx context.Context, runID, path, outcome string, deleteErr error) error {
	var errText sql.NullString
	if deleteErr != nil {
		errText = sql.NullString{String: deleteErr.Error(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO deletions (run_id, path, outcome, error, recorded_at) VALUES (?, ?, ?, ?, ?)",
		runID, path, outcome, errText, now())
	if err != nil {
		return fmt.Errorf("cannot record deletion of %s: %w", path, err)
	}
	return nil
}

// FinishRun marks a run with its final status
func (j *Journal) FinishRun(ctx context.Context, runID, status string) error {
	res, err := j.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, finished_at = ? WHERE id = ?", status, now(), runID)
	if err != nil {
		return fmt.Errorf("cannot finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}
	return nil
}

// GetRun loads a journaled run
func (j *Journal) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	var (
		record     RunRecord
		paths      string
		startedAt  string
		finishedAt sql.NullString
	)

	err := j.db.QueryRowContext(ctx, `
		SELECT id, status, mode, hasher, threshold, paths, images, fingerprint_failures, started_at, finished_at
		FROM runs WHERE id = ?`, runID).Scan(
		&record.ID, &record.Status, &record.Mode, &record.Hasher, &record.Threshold,
		&paths, &record.Images, &record.FingerprintFailures, &startedAt, &finishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot load run %s: %w", runID, err)
	}

	if err := json.Unmarshal([]byte(paths), &record.Paths); err != nil {
		return nil, fmt.Errorf("cannot decode paths of run %s: %w", runID, err)
	}
	if record.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("cannot parse start time of run %s: %w", runID, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("cannot parse finish time of run %s: %w", runID, err)
		}
		record.FinishedAt = &t
	}

	return &record, nil
}

// GetRunPairs returns the pairs journaled for a run in their original order
func (j *Journal) GetRunPairs(ctx context.Context, runID string) ([]types.Pair, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT path_a, path_b, distance FROM pairs WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("cannot query pairs of run %s: %w", runID, err)
	}
	defer rows.Close()

	var pairs []types.Pair
	for rows.Next() {
		var pair types.Pair
		if err := rows.Scan(&pair.A, &pair.B, &pair.Distance); err != nil {
			return nil, fmt.Errorf("cannot scan pair: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// DeletionStats counts journaled deletion outcomes for a run
func (j *Journal) DeletionStats(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT outcome, COUNT(*) FROM deletions WHERE run_id = ? GROUP BY outcome", runID)
	if err != nil {
		return nil, fmt.Errorf("cannot query deletions of run %s: %w", runID, err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("cannot scan deletion stats: %w", err)
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
