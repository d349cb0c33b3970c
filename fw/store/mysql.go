package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dshills/firewyrm/fw/report"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a Store backed by MySQL or MariaDB, for hosts that share a
// run history across machines.
//
// The DSN format is:
//
//	[username[:password]@][protocol[(address)]]/dbname[?param1=value1&...]
//
// Never hardcode credentials; read the DSN from the environment:
//
//	st, err := store.NewMySQLStore(os.Getenv("FIREWYRM_MYSQL_DSN"))
type MySQLStore struct {
	sqlStore
}

// NewMySQLStore connects to dsn and creates the schema if needed.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	s := &MySQLStore{sqlStore: sqlStore{db: db}}
	if err := s.migrate(ctx, mysqlSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS firewyrm_reports (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		started_at BIGINT NOT NULL,
		finished_at BIGINT NOT NULL,
		verbose BOOLEAN NOT NULL,
		total INT NOT NULL,
		passed INT NOT NULL,
		results MEDIUMTEXT NOT NULL,
		sections TEXT NOT NULL,
		report_lines MEDIUMTEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY idx_firewyrm_reports_run (run_id),
		INDEX idx_firewyrm_reports_finished (finished_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// SaveReport implements Store.
func (s *MySQLStore) SaveReport(ctx context.Context, rep report.Report) error {
	return s.saveReport(ctx, rep)
}

// LoadReport implements Store.
func (s *MySQLStore) LoadReport(ctx context.Context, runID string) (report.Report, error) {
	return s.loadReport(ctx, runID)
}

// ListReports implements Store.
func (s *MySQLStore) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	return s.listReports(ctx, limit)
}

// DeleteReport implements Store.
func (s *MySQLStore) DeleteReport(ctx context.Context, runID string) error {
	return s.deleteReport(ctx, runID)
}

// Close closes the connection pool. Double-close is a no-op.
func (s *MySQLStore) Close() error {
	return s.close()
}

// Ping verifies the database connection is alive.
func (s *MySQLStore) Ping(ctx context.Context) error {
	return s.ping(ctx)
}
