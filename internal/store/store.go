// Package store is hub's SQLite persistence layer: extraction templates
// with their field regions, scheduled jobs, and job run history.
//
// One database file (default .hub/hub.db), WAL journal mode, a single
// write connection. All timestamps are stored in UTC.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"automationhub/internal/logging"
)

// Sentinel errors surfaced to the CLI.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrJobNotFound      = errors.New("job not found")
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Store wraps the SQLite database holding hub's persistent state.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// New opens (creating if needed) the database at the given path and
// initializes the schema.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "New")
	defer timer.Stop()

	logging.Store("Opening store at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	// Required for the ON DELETE CASCADE on fields and job_runs.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable sqlite foreign_keys: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("Store ready (templates, jobs, run history)")
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	templatesTable := `
	CREATE TABLE IF NOT EXISTS templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		base_width REAL NOT NULL,
		base_height REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	fieldsTable := `
	CREATE TABLE IF NOT EXISTS fields (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		x REAL,
		y REAL,
		width REAL,
		height REAL
	);
	CREATE INDEX IF NOT EXISTS idx_fields_template ON fields(template_id);
	`

	jobsTable := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		command TEXT NOT NULL,
		schedule_type TEXT NOT NULL CHECK(schedule_type IN ('interval','cron')),
		interval_seconds INTEGER,
		cron_expr TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME,
		last_run_at DATETIME,
		next_run_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_enabled ON jobs(enabled);
	`

	jobRunsTable := `
	CREATE TABLE IF NOT EXISTS job_runs (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		started_at DATETIME,
		finished_at DATETIME,
		exit_code INTEGER,
		output TEXT,
		success INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_job_runs_job ON job_runs(job_id);
	CREATE INDEX IF NOT EXISTS idx_job_runs_started ON job_runs(started_at);
	`

	for _, table := range []string{
		templatesTable,
		fieldsTable,
		jobsTable,
		jobRunsTable,
	} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	logging.Store("Closing store database connection")
	return s.db.Close()
}

// DB returns the underlying SQL database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Stats returns row counts per table.
func (s *Store) Stats() (map[string]int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Stats")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"templates", "fields", "jobs", "job_runs"} {
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			logging.StoreDebug("Table %s count failed: %v", table, err)
			continue
		}
		stats[table] = count
	}

	return stats, nil
}
