package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// LogFunc receives report lines one at a time, in print order.
type LogFunc func(message string)

// Stdout returns the default sink, which prints each line to standard output.
func Stdout() LogFunc {
	return WriterSink(os.Stdout)
}

// WriterSink prints each line to w followed by a newline.
// A nil writer falls back to standard output.
func WriterSink(w io.Writer) LogFunc {
	if w == nil {
		w = os.Stdout
	}
	return func(message string) {
		fmt.Fprintln(w, message)
	}
}

// NewStyledSink prints lines to w with terminal colors: passes in green,
// failures in red, headers in bold. Color output degrades to plain text when
// w is not a terminal.
func NewStyledSink(w io.Writer) LogFunc {
	if w == nil {
		w = os.Stdout
	}
	r := lipgloss.NewRenderer(w)
	pass := r.NewStyle().Foreground(lipgloss.Color("10"))
	fail := r.NewStyle().Foreground(lipgloss.Color("9"))
	header := r.NewStyle().Bold(true)

	return func(message string) {
		trimmed := strings.TrimSpace(message)
		switch {
		case strings.HasPrefix(trimmed, "✅"):
			message = pass.Render(message)
		case strings.HasPrefix(trimmed, "❌"):
			message = fail.Render(message)
		case strings.HasPrefix(trimmed, "==="), trimmed == Banner:
			message = header.Render(message)
		}
		fmt.Fprintln(w, message)
	}
}

// JSONSink writes each line to w as a JSON object {"line": "..."}, one per
// line of output.
func JSONSink(w io.Writer) LogFunc {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	var mu sync.Mutex
	return func(message string) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(struct {
			Line string `json:"line"`
		}{Line: message})
	}
}

// ZapSink writes each line as an info entry of logger.
func ZapSink(logger *zap.Logger) LogFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(message string) {
		logger.Info(message)
	}
}

// Tee fans every line out to all sinks in order. Nil sinks are skipped.
func Tee(sinks ...LogFunc) LogFunc {
	return func(message string) {
		for _, sink := range sinks {
			if sink != nil {
				sink(message)
			}
		}
	}
}

// Recorder is a sink that keeps every line in memory.
//
// Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Log appends message. Pass rec.Log wherever a LogFunc is expected.
func (rec *Recorder) Log(message string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.lines = append(rec.lines, message)
}

// Lines returns a copy of the recorded lines.
func (rec *Recorder) Lines() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, len(rec.lines))
	copy(out, rec.lines)
	return out
}

// String joins the recorded lines with newlines, each line terminated.
func (rec *Recorder) String() string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var b strings.Builder
	for _, line := range rec.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Reset discards the recorded lines.
func (rec *Recorder) Reset() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.lines = nil
}
