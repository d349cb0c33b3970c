package emit

// Event messages emitted by a runner.
const (
	MsgRunStart       = "run_start"
	MsgTestPass       = "test_pass"
	MsgTestFail       = "test_fail"
	MsgAssertionError = "assertion_error"
	MsgSectionFlush   = "section_flush"
	MsgRunEnd         = "run_end"
)

// Event is an observability record produced while a run executes.
//
// One event is emitted per finished test, per flushed section, and at the
// start and end of a run.
type Event struct {
	// RunID identifies the run that emitted this event.
	RunID string

	// Ordinal is the global test number (1-indexed).
	// Zero for run-level and section-level events.
	Ordinal int

	// Section is the open section, empty outside sections.
	Section string

	// Msg names the event (see the Msg constants).
	Msg string

	// Meta carries event-specific data. Common keys:
	//   - "statement": test label
	//   - "duration_ms": test duration in milliseconds
	//   - "error": failure message
	//   - "total", "passed": tallies for section and run events
	Meta map[string]interface{}
}
