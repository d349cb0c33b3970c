package emit

import "sync"

// BufferedEmitter stores events in memory, grouped by run ID.
//
// Features:
//   - Thread-safe concurrent access
//   - Query by runID with optional filtering
//   - Clear events by runID or all events
//
// Use cases: debugging a suite, asserting on emitted events in tests,
// post-run analysis of failures.
//
// Example usage:
//
//	events := emit.NewBufferedEmitter()
//	r, _ := fw.New(fw.WithEmitter(events))
//	rep, _ := r.Start().Test("ok", true).End(true).Await(ctx)
//
//	failures := events.GetHistoryWithFilter(rep.RunID, emit.HistoryFilter{Msg: emit.MsgTestFail})
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // runID -> events
}

// HistoryFilter specifies criteria for filtering stored events.
//
// All fields are optional; set fields are combined with AND logic.
type HistoryFilter struct {
	Section    string // Filter by section (empty = no filter)
	Msg        string // Filter by message (empty = no filter)
	MinOrdinal *int   // Minimum test ordinal (nil = no filter)
	MaxOrdinal *int   // Maximum test ordinal (nil = no filter)
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
	}
}

// Emit stores an event under its run ID.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)
}

// GetHistory returns a copy of all events of runID in emission order.
// Returns an empty slice for unknown runs.
func (b *BufferedEmitter) GetHistory(runID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[runID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// GetHistoryWithFilter returns the events of runID matching filter, in
// emission order. Returns an empty slice if nothing matches.
func (b *BufferedEmitter) GetHistoryWithFilter(runID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[runID] {
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	return result
}

// RunIDs returns the IDs of all runs with stored events, in no particular order.
func (b *BufferedEmitter) RunIDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.events))
	for id := range b.events {
		ids = append(ids, id)
	}
	return ids
}

func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.Section != "" && event.Section != filter.Section {
		return false
	}
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinOrdinal != nil && event.Ordinal < *filter.MinOrdinal {
		return false
	}
	if filter.MaxOrdinal != nil && event.Ordinal > *filter.MaxOrdinal {
		return false
	}
	return true
}

// Clear removes the events of runID, or of every run when runID is empty.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if runID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, runID)
}
