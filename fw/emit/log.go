package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// LogEmitter writes events to a writer, one per line.
//
// Supports two output modes:
//   - Text mode (default): human-readable key=value pairs
//   - JSON mode: one JSON object per line (JSONL)
//
// Test events carry the statement and an outcome (pass, fail or error),
// section and run events their passed/total tally.
//
// Example text output:
//
//	[test_fail] runID=run-001 test=3 section=math statement="divides" outcome=fail duration_ms=2 error="division by zero"
//	[section_flush] runID=run-001 section=math passed=2/3
//
// Example JSON output:
//
//	{"runID":"run-001","ordinal":3,"section":"math","msg":"test_pass","outcome":"pass","meta":{"statement":"adds"}}
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (standard output when nil).
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{
		writer:   writer,
		jsonMode: jsonMode,
	}
}

// Emit writes event in the configured format.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

// outcomes names the result carried by each test event.
var outcomes = map[string]string{
	MsgTestPass:       "pass",
	MsgTestFail:       "fail",
	MsgAssertionError: "error",
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID   string                 `json:"runID"`
		Ordinal int                    `json:"ordinal"`
		Section string                 `json:"section"`
		Msg     string                 `json:"msg"`
		Outcome string                 `json:"outcome,omitempty"`
		Meta    map[string]interface{} `json:"meta"`
	}{
		RunID:   event.RunID,
		Ordinal: event.Ordinal,
		Section: event.Section,
		Msg:     event.Msg,
		Outcome: outcomes[event.Msg],
		Meta:    event.Meta,
	})
	if err != nil {
		fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}

	fmt.Fprintf(l.writer, "%s\n", data)
}

// emitText builds the whole line first so concurrent runs sharing a writer
// do not interleave within a line.
func (l *LogEmitter) emitText(event Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] runID=%s", event.Msg, event.RunID)
	if event.Ordinal > 0 {
		fmt.Fprintf(&b, " test=%d", event.Ordinal)
	}
	if event.Section != "" {
		fmt.Fprintf(&b, " section=%s", event.Section)
	}

	rest := make(map[string]interface{}, len(event.Meta))
	for k, v := range event.Meta {
		rest[k] = v
	}
	if statement, ok := rest["statement"]; ok {
		delete(rest, "statement")
		fmt.Fprintf(&b, " statement=%q", fmt.Sprint(statement))
	}
	if outcome := outcomes[event.Msg]; outcome != "" {
		fmt.Fprintf(&b, " outcome=%s", outcome)
	}
	if ms, ok := rest["duration_ms"]; ok {
		delete(rest, "duration_ms")
		fmt.Fprintf(&b, " duration_ms=%v", ms)
	}
	passed, hasPassed := rest["passed"]
	total, hasTotal := rest["total"]
	if hasPassed && hasTotal {
		delete(rest, "passed")
		delete(rest, "total")
		fmt.Fprintf(&b, " passed=%v/%v", passed, total)
	}
	if msg, ok := rest["error"]; ok {
		delete(rest, "error")
		fmt.Fprintf(&b, " error=%q", fmt.Sprint(msg))
	}

	if len(rest) > 0 {
		metaJSON, err := json.Marshal(rest)
		if err == nil {
			fmt.Fprintf(&b, " meta=%s", metaJSON)
		} else {
			fmt.Fprintf(&b, " meta=%v", rest)
		}
	}

	b.WriteByte('\n')
	_, _ = io.WriteString(l.writer, b.String())
}
