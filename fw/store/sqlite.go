package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dshills/firewyrm/fw/report"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a single-file SQLite database.
//
// The schema is created on first use. WAL mode is enabled for file
// databases so readers do not block the runner's writes.
//
// Example:
//
//	st, err := store.NewSQLiteStore("./firewyrm.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	r, _ := fw.New(fw.WithStore(st))
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLiteStore opens (or creates) the database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time; a single connection also keeps
	// ":memory:" databases alive across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{sqlStore: sqlStore{db: db}, path: path}
	if err := s.migrate(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS firewyrm_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		verbose BOOLEAN NOT NULL,
		total INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		results TEXT NOT NULL,
		sections TEXT NOT NULL,
		report_lines TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	"CREATE INDEX IF NOT EXISTS idx_firewyrm_reports_finished ON firewyrm_reports(finished_at)",
}

// Path returns the database location the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// SaveReport implements Store.
func (s *SQLiteStore) SaveReport(ctx context.Context, rep report.Report) error {
	return s.saveReport(ctx, rep)
}

// LoadReport implements Store.
func (s *SQLiteStore) LoadReport(ctx context.Context, runID string) (report.Report, error) {
	return s.loadReport(ctx, runID)
}

// ListReports implements Store.
func (s *SQLiteStore) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	return s.listReports(ctx, limit)
}

// DeleteReport implements Store.
func (s *SQLiteStore) DeleteReport(ctx context.Context, runID string) error {
	return s.deleteReport(ctx, runID)
}

// Close closes the database. Double-close is a no-op.
func (s *SQLiteStore) Close() error {
	return s.close()
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}
