package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"edgepick/internal/models"
	"edgepick/internal/storage"
)

// MySQLStore implements the storage.Storer interface for MySQL and MariaDB.
type MySQLStore struct {
	db *sql.DB
}

// NormalizeDSN parses a go-sql-driver DSN and forces the options the store
// relies on: DATETIME columns scanned as time.Time, in UTC.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// New opens the database, pings it and runs migrations.
func New(ctx context.Context, dsn string) (*MySQLStore, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("unable to open mysql database: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	store := &MySQLStore{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *MySQLStore) Close() error { return s.db.Close() }

// migrate ensures the database schema is created. The driver runs one
// statement per Exec unless multiStatements is set, so tables go one by one.
func (s *MySQLStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id          VARCHAR(64) PRIMARY KEY,
			started_at  DATETIME(6) NOT NULL,
			finished_at DATETIME(6) NOT NULL,
			best        VARCHAR(2048) NOT NULL DEFAULT '',
			INDEX idx_scans_started_at (started_at)
		)`,
		`CREATE TABLE IF NOT EXISTS scan_results (
			scan_id     VARCHAR(64) NOT NULL,
			position    INT NOT NULL,
			endpoint    VARCHAR(2048) NOT NULL,
			healthy     BOOLEAN NOT NULL,
			latency_ns  BIGINT NOT NULL,
			strategy    VARCHAR(64) NOT NULL DEFAULT '',
			PRIMARY KEY (scan_id, position),
			FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateScan implements the Storer interface.
func (s *MySQLStore) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.ID == "" {
		scan.ID = storage.NewID("s_")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO scans (id, started_at, finished_at, best) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, scan.ID, scan.StartedAt.UTC(), scan.FinishedAt.UTC(), scan.Best); err != nil {
		var mysqlErr *driver.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return fmt.Errorf("scan %s already exists: %w", scan.ID, err)
		}
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

// GetScan implements the Storer interface.
func (s *MySQLStore) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	query := `SELECT id, started_at, finished_at, best FROM scans WHERE id = ?`
	var scan models.Scan
	err := s.db.QueryRowContext(ctx, query, id).Scan(&scan.ID, &scan.StartedAt, &scan.FinishedAt, &scan.Best)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan by id: %w", err)
	}
	if scan.Results, err = s.results(ctx, scan.ID); err != nil {
		return nil, err
	}
	return &scan, nil
}

// ListScans implements the Storer interface.
func (s *MySQLStore) ListScans(ctx context.Context, params storage.ListScansParams) ([]models.Scan, error) {
	var args []interface{}
	query := "SELECT id, started_at, finished_at, best FROM scans"
	if !params.Before.IsZero() {
		query += " WHERE started_at < ?"
		args = append(args, params.Before.UTC())
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, params.EffectiveLimit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var scans []models.Scan
	for rows.Next() {
		var scan models.Scan
		if err := rows.Scan(&scan.ID, &scan.StartedAt, &scan.FinishedAt, &scan.Best); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}

	for i := range scans {
		if scans[i].Results, err = s.results(ctx, scans[i].ID); err != nil {
			return nil, err
		}
	}
	return scans, nil
}

func (s *MySQLStore) results(ctx context.Context, scanID string) ([]models.ProbeResult, error) {
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
