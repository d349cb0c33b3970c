package fw

import (
	"context"

	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"go.uber.org/zap"
)

// Section queues the start of a named section. The previous section, if
// any, is closed and printed first; sections do not nest. An empty name
// closes the open section without starting a new one.
func (r *Runner) Section(name string) *Runner {
	r.queue.enqueue(func(ctx context.Context) {
		r.beginRun()
		r.flushSection()
		r.state.currentSection = name
	})
	return r
}

// flushSection moves the open section's buffered lines into the main buffer
// as a titled block with its tally, then clears the section state. A section
// that logged nothing produces no block.
func (r *Runner) flushSection() {
	st := &r.state
	if st.currentSection != "" && len(st.sectionLogs) > 0 {
		name, passed, total := st.currentSection, st.sectionPassCount, st.sectionTestCount
		st.logs = append(st.logs, report.SectionBlock(name, st.sectionLogs, passed, total)...)
		st.sections = append(st.sections, report.SectionSummary{Name: name, Total: total, Passed: passed})

		r.emit(emit.Event{
			Section: name,
			Msg:     emit.MsgSectionFlush,
			Meta:    map[string]interface{}{"total": total, "passed": passed},
		})
		r.logger.Debug("section flushed", zap.String("section", name), zap.Int("total", total), zap.Int("passed", passed))
	}

	st.currentSection = ""
	st.sectionLogs = nil
	st.sectionTestCount = 0
	st.sectionPassCount = 0
}
