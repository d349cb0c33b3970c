package store

import (
	"context"
	"sync"

	"github.com/dshills/firewyrm/fw/report"
)

// MemStore is an in-memory Store.
//
// Data is lost when the process exits. Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	reports map[string]report.Report
	order   []string // run IDs, oldest save first
	closed  bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		reports: make(map[string]report.Report),
	}
}

// SaveReport stores a deep copy of rep.
func (m *MemStore) SaveReport(_ context.Context, rep report.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, exists := m.reports[rep.RunID]; exists {
		m.removeFromOrder(rep.RunID)
	}
	m.reports[rep.RunID] = cloneReport(rep)
	m.order = append(m.order, rep.RunID)
	return nil
}

// LoadReport returns a copy of the stored report.
func (m *MemStore) LoadReport(_ context.Context, runID string) (report.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return report.Report{}, ErrClosed
	}

	rep, ok := m.reports[runID]
	if !ok {
		return report.Report{}, ErrNotFound
	}
	return cloneReport(rep), nil
}

// ListReports returns summaries newest first.
func (m *MemStore) ListReports(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	out := []Summary{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, summarize(m.reports[m.order[i]]))
	}
	return out, nil
}

// DeleteReport removes a stored report.
func (m *MemStore) DeleteReport(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if _, ok := m.reports[runID]; !ok {
		return ErrNotFound
	}
	delete(m.reports, runID)
	m.removeFromOrder(runID)
	return nil
}

// Close marks the store closed.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemStore) removeFromOrder(runID string) {
	for i, id := range m.order {
		if id == runID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}

func cloneReport(rep report.Report) report.Report {
	out := rep
	out.Results = append([]report.Result(nil), rep.Results...)
	out.Sections = append([]report.SectionSummary(nil), rep.Sections...)
	out.Lines = append([]string(nil), rep.Lines...)
	return out
}
