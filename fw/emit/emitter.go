// Package emit provides observability events and emitters for FireWyrm runs.
package emit

// Emitter receives observability events from a test run.
//
// Emitters make the run observable beyond the printed report:
//   - Logging: stdout, files, zap
//   - Distributed tracing: OpenTelemetry
//   - Post-run analysis: in-memory buffers
//
// Implementations should be:
//   - Non-blocking: the scheduler calls Emit from inside a running task
//   - Resilient: handle backend failures internally
type Emitter interface {
	// Emit sends an event to the configured backend.
	//
	// Emit should not panic. Errors should be logged internally.
	Emit(event Event)
}

// Multi fans every event out to several emitters in order.
type Multi []Emitter

// Emit forwards event to every non-nil emitter.
func (m Multi) Emit(event Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(event)
		}
	}
}
