package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"edgepick/internal/models"
	"edgepick/internal/storage"
)

// PostgresStore implements the storage.Storer interface for PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New creates a new PostgresStore and establishes a connection to the database.
// It also runs migrations to ensure the schema is up to date.
func New(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	store := &PostgresStore{db: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// migrate ensures the database schema is created.
func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id           TEXT PRIMARY KEY,
		started_at   TIMESTAMPTZ NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL,
		best         TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_scans_started_at ON scans (started_at DESC);

	CREATE TABLE IF NOT EXISTS scan_results (
		scan_id      TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		endpoint     TEXT NOT NULL,
		healthy      BOOLEAN NOT NULL,
		latency_ns   BIGINT NOT NULL,
		strategy     TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (scan_id, position)
	);
	`
	_, err := s.db.Exec(ctx, schema)
	return err
}

// CreateScan implements the Storer interface.
func (s *PostgresStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = storage.NewID("s_")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO scans (id, started_at, finished_at, best) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, query, scan.ID, scan.StartedAt, scan.FinishedAt, scan.Best); err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	batch := &pgx.Batch{}
	for i, r := range scan.Results {
		batch.Queue(`INSERT INTO scan_results (scan_id, position, endpoint, healthy, latency_ns, strategy) VALUES ($1, $2, $3, $4, $5, $6)`,
			scan.ID, i, r.Endpoint, r.Healthy, int64(r.Latency), r.Strategy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert scan results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetScan implements the Storer interface.
func (s *PostgresStore) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	query := `SELECT id, started_at, finished_at, best FROM scans WHERE id = $1`
	var scan models.Scan
	err := s.db.QueryRow(ctx, query, id).Scan(&scan.ID, &scan.StartedAt, &scan.FinishedAt, &scan.Best)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan by id: %w", err)
	}

	byScan, err := s.results(ctx, []string{scan.ID})
	if err != nil {
		return nil, err
	}
	scan.Results = byScan[scan.ID]
	return &scan, nil
}

// ListScans implements the Storer interface.
func (s *PostgresStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]models.Scan, error) {
	before := params.Before
	if before.IsZero() {
		before = time.Now().Add(24 * time.Hour)
	}
	query := `SELECT id, started_at, finished_at, best FROM scans WHERE started_at < $1 ORDER BY started_at DESC, id DESC LIMIT $2`
	rows, err := s.db.Query(ctx, query, before, params.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []models.Scan
	var ids []string
	for rows.Next() {
		var scan models.Scan
		if err := rows.Scan(&scan.ID, &scan.StartedAt, &scan.FinishedAt, &scan.Best); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, scan)
		ids = append(ids, scan.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	if len(ids) == 0 {
		return scans, nil
	}

	byScan, err := s.results(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range scans {
		scans[i].Results = byScan[scans[i].ID]
	}
	return scans, nil
}

func (s *PostgresStore) results(ctx context.Context, ids []string) (map[string][]models.ProbeResult, error) {
	query := `SELECT scan_id, endpoint, healthy, latency_ns, strategy FROM scan_results WHERE scan_id = ANY($1) ORDER BY scan_id, position`
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.ProbeResult, len(ids))
	for rows.Next() {
		var scanID string
		var r models.ProbeResult
		var latency int64
		if err := rows.Scan(&scanID, &r.Endpoint, &r.Healthy, &latency, &r.Strategy); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		r.Latency = time.Duration(latency)
		out[scanID] = append(out[scanID], r)
	}
	return out, rows.Err()
}
