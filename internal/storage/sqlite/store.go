package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"edgepick/internal/models"
	"edgepick/internal/storage"
)

// timeLayout is fixed width so that text comparison orders chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements the storage.Storer interface for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore and establishes a connection to the database file.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created.
func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS scans (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	best        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans (started_at DESC);

CREATE TABLE IF NOT EXISTS scan_results (
	scan_id     TEXT NOT NULL,
	position    INTEGER NOT NULL,
	endpoint    TEXT NOT NULL,
	healthy     INTEGER NOT NULL,
	latency_ns  INTEGER NOT NULL,
	strategy    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (scan_id, position),
	FOREIGN KEY(scan_id) REFERENCES scans(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateScan saves a scan and its results in one transaction.
func (s *SQLiteStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = storage.NewID("s_")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO scans (id, started_at, finished_at, best) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, scan.ID, formatTime(scan.StartedAt), formatTime(scan.FinishedAt), scan.Best); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	resultQuery := `INSERT INTO scan_results (scan_id, position, endpoint, healthy, latency_ns, strategy) VALUES (?, ?, ?, ?, ?, ?)`
	for i, r := range scan.Results {
		if _, err := tx.ExecContext(ctx, resultQuery, scan.ID, i, r.Endpoint, r.Healthy, int64(r.Latency), r.Strategy); err != nil {
			return fmt.Errorf("failed to insert scan result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetScan retrieves a single scan by its unique ID.
func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	query := `SELECT id, started_at, finished_at, best FROM scans WHERE id = ?`
	var scan models.Scan
	var startedAt, finishedAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&scan.ID, &startedAt, &finishedAt, &scan.Best)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan by id: %w", err)
	}
	scan.StartedAt = parseTime(startedAt)
	scan.FinishedAt = parseTime(finishedAt)

	if scan.Results, err = s.results(ctx, scan.ID); err != nil {
		return nil, err
	}
	return &scan, nil
}

// ListScans retrieves the most recent scans, newest first.
func (s *SQLiteStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]models.Scan, error) {
	var args []interface{}
	query := "SELECT id, started_at, finished_at, best FROM scans"
	if !params.Before.IsZero() {
		query += " WHERE started_at < ?"
		args = append(args, formatTime(params.Before))
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, params.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	var scans []models.Scan
	for rows.Next() {
		var scan models.Scan
		var startedAt, finishedAt string
		if err := rows.Scan(&scan.ID, &startedAt, &finishedAt, &scan.Best); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scan.StartedAt = parseTime(startedAt)
		scan.FinishedAt = parseTime(finishedAt)
		scans = append(scans, scan)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}

	// Results are loaded after rows is closed: the pool holds one connection.
	for i := range scans {
		if scans[i].Results, err = s.results(ctx, scans[i].ID); err != nil {
			return nil, err
		}
	}
	return scans, nil
}

func (s *SQLiteStore) results(ctx context.Context, scanID string) ([]models.ProbeResult, error) {
	query := `SELECT endpoint, healthy, latency_ns, strategy FROM scan_results WHERE scan_id = ? ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}
	defer rows.Close()
	results := []models.ProbeResult{}
	for rows.Next() {
		var r models.ProbeResult
		var latency int64
		if err := rows.Scan(&r.Endpoint, &r.Healthy, &latency, &r.Strategy); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		r.Latency = time.Duration(latency)
		results = append(results, r)
	}
	return results, rows.Err()
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
