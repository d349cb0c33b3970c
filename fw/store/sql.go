package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/firewyrm/fw/report"
)

// sqlStore holds the queries shared by the SQLite and MySQL stores. Both
// drivers use "?" placeholders, so only the schema differs.
type sqlStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

func (s *sqlStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *sqlStore) migrate(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) saveReport(ctx context.Context, rep report.Report) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	results, err := json.Marshal(rep.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	sections, err := json.Marshal(rep.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	lines, err := json.Marshal(rep.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal lines: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM firewyrm_reports WHERE run_id = ?", rep.RunID); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO firewyrm_reports
			(run_id, started_at, finished_at, verbose, total, passed, results, sections, report_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID,
		rep.StartedAt.UnixNano(),
		rep.FinishedAt.UnixNano(),
		rep.Verbose,
		rep.Total,
		rep.Passed,
		string(results),
		string(sections),
		string(lines),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	return nil
}

func (s *sqlStore) loadReport(ctx context.Context, runID string) (report.Report, error) {
	if err := s.checkOpen(); err != nil {
		return report.Report{}, err
	}

	var (
		rep                      report.Report
		started, finished        int64
		results, sections, lines string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, verbose, total, passed, results, sections, report_lines
		FROM firewyrm_reports WHERE run_id = ?`, runID,
	).Scan(&rep.RunID, &started, &finished, &rep.Verbose, &rep.Total, &rep.Passed, &results, &sections, &lines)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Report{}, ErrNotFound
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("failed to load report: %w", err)
	}

	rep.StartedAt = time.Unix(0, started)
	rep.FinishedAt = time.Unix(0, finished)
	if err := json.Unmarshal([]byte(results), &rep.Results); err != nil {
		return report.Report{}, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	if err := json.Unmarshal([]byte(sections), &rep.Sections); err != nil {
		return report.Report{}, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	if err := json.Unmarshal([]byte(lines), &rep.Lines); err != nil {
		return report.Report{}, fmt.Errorf("failed to unmarshal lines: %w", err)
	}
	return rep, nil
}

func (s *sqlStore) listReports(ctx context.Context, limit int) ([]Summary, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := "SELECT run_id, finished_at, verbose, total, passed FROM firewyrm_reports ORDER BY id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Summary{}
	for rows.Next() {
		var (
			sum      Summary
			finished int64
		)
		if err := rows.Scan(&sum.RunID, &finished, &sum.Verbose, &sum.Total, &sum.Passed); err != nil {
			return nil, fmt.Errorf("failed to scan report summary: %w", err)
		}
		sum.FinishedAt = time.Unix(0, finished)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return out, nil
}

func (s *sqlStore) deleteReport(ctx context.Context, runID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM firewyrm_reports WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *sqlStore) ping(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}
