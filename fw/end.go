package fw

import (
	"context"
	"time"

	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"go.uber.org/zap"
)

// End queues the flush of the current run: the open section is closed, the
// verbose summary appended when requested, and every buffered line printed
// through the sink. The run state is then reset and the runner is idle.
//
// The returned promise resolves with the finished Report once the flush has
// run. It never rejects.
func (r *Runner) End(verbose bool) *Promise[report.Report] {
	p := NewPromise[report.Report]()
	r.queue.enqueue(func(ctx context.Context) {
		p.Resolve(r.finish(ctx, verbose))
	})
	return p
}

func (r *Runner) finish(ctx context.Context, verbose bool) report.Report {
	r.beginRun()
	r.flushSection()

	st := &r.state
	sink, progress := r.Sink(), r.OnProgress()

	if verbose {
		for _, line := range report.FinalBlock(st.testCount, st.passCount) {
			r.callProgress(progress, line)
			st.logs = append(st.logs, line)
		}
	}

	for _, line := range st.logs {
		r.print(sink, line)
		r.callProgress(progress, line)
	}

	rep := report.Report{
		RunID:      st.runID,
		StartedAt:  st.startedAt,
		FinishedAt: time.Now(),
		Verbose:    verbose,
		Total:      st.testCount,
		Passed:     st.passCount,
		Results:    st.results,
		Sections:   st.sections,
		Lines:      st.logs,
	}

	r.emit(emit.Event{
		Msg:  emit.MsgRunEnd,
		Meta: map[string]interface{}{"total": rep.Total, "passed": rep.Passed},
	})
	r.metrics.IncrementRuns(verbose)
	r.save(ctx, rep)
	r.logger.Debug("run flushed",
		zap.String("run_id", rep.RunID),
		zap.Int("total", rep.Total),
		zap.Int("passed", rep.Passed),
		zap.Bool("verbose", verbose))

	r.state = runState{}
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	r.callProgress(progress, report.Complete)
	return rep
}

func (r *Runner) save(ctx context.Context, rep report.Report) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveReport(ctx, rep); err != nil {
		r.logger.Warn("saving report failed", zap.String("run_id", rep.RunID), zap.Error(err))
	}
}

// print hands line to sink. A panicking sink loses the line, not the run.
func (r *Runner) print(sink report.LogFunc, line string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("sink panicked", zap.Any("panic", rec))
		}
	}()
	sink(line)
}

func (r *Runner) callProgress(fn ProgressFunc, message string) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("progress callback panicked", zap.Any("panic", rec))
		}
	}()
	fn(message)
}
