// Package store persists finished FireWyrm reports so hosts can keep a run
// history. The runner itself never reads from a store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/firewyrm/fw/report"
)

// ErrNotFound is returned when a requested run ID does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store keeps finished reports.
//
// Implementations:
//   - MemStore: in-memory, for tests and single-process hosts
//   - SQLiteStore: single-file database
//   - MySQLStore: shared database for CI fleets
type Store interface {
	// SaveReport persists rep under rep.RunID, replacing any previous
	// report with the same ID.
	SaveReport(ctx context.Context, rep report.Report) error

	// LoadReport returns the report of runID, or ErrNotFound.
	LoadReport(ctx context.Context, runID string) (report.Report, error)

	// ListReports returns summaries of the most recently saved reports,
	// newest first. A limit <= 0 returns every report.
	ListReports(ctx context.Context, limit int) ([]Summary, error)

	// DeleteReport removes the report of runID, or returns ErrNotFound.
	DeleteReport(ctx context.Context, runID string) error

	// Close releases resources. Closing twice is a no-op.
	Close() error
}

// Summary is the listing entry of a stored report.
type Summary struct {
	RunID      string
	FinishedAt time.Time
	Verbose    bool
	Total      int
	Passed     int
}

// Failed returns the number of failed tests of the run.
func (s Summary) Failed() int {
	return s.Total - s.Passed
}

func summarize(rep report.Report) Summary {
	return Summary{
		RunID:      rep.RunID,
		FinishedAt: rep.FinishedAt,
		Verbose:    rep.Verbose,
		Total:      rep.Total,
		Passed:     rep.Passed,
	}
}
