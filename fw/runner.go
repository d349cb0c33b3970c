package fw

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"github.com/dshills/firewyrm/fw/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProgressFunc receives progress messages as a run is flushed.
type ProgressFunc func(message string)

// Runner queues tests and assertions and executes them strictly in
// registration order on a single drain goroutine.
//
// A run begins with Start and ends with End. Tests registered outside a run
// are executed and reported on their own, as if wrapped in Start and a
// quiet End.
//
// The run state (counters, buffers, open section) is touched only by queued
// tasks. Registration methods are safe for concurrent use.
type Runner struct {
	queue *taskQueue

	mu         sync.Mutex // guards running, sink, onProgress, mocks
	running    bool
	sink       report.LogFunc
	onProgress ProgressFunc
	mocks      []*MockRecord

	state runState

	emitter  emit.Emitter
	store    store.Store
	metrics  *PrometheusMetrics
	logger   *zap.Logger
	ctx      context.Context
	newRunID func() string
	banner   bool
}

// runState is the per-run bookkeeping. Only tasks read or write it.
type runState struct {
	runID     string
	startedAt time.Time

	currentSection   string
	testCount        int
	passCount        int
	sectionTestCount int
	sectionPassCount int

	logs        []string
	sectionLogs []string

	results  []report.Result
	sections []report.SectionSummary
}

// State is a point-in-time view of a runner's bookkeeping.
type State struct {
	Running          bool
	Section          string
	TestCount        int
	PassCount        int
	SectionTestCount int
	SectionPassCount int
	Buffered         int
	SectionBuffered  int
	Mocks            int
}

// New creates an isolated runner.
func New(opts ...Option) (*Runner, error) {
	cfg := runnerConfig{
		sink:     report.Stdout(),
		emitter:  emit.NewNullEmitter(),
		logger:   zap.NewNop(),
		ctx:      context.Background(),
		newRunID: uuid.NewString,
		banner:   true,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Runner{
		queue:      newTaskQueue(cfg.ctx, cfg.logger, cfg.metrics),
		sink:       cfg.sink,
		onProgress: cfg.onProgress,
		emitter:    cfg.emitter,
		store:      cfg.store,
		metrics:    cfg.metrics,
		logger:     cfg.logger,
		ctx:        cfg.ctx,
		newRunID:   cfg.newRunID,
		banner:     cfg.banner,
	}, nil
}

// Start marks the runner as running and queues the banner.
func (r *Runner) Start() *Runner {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	r.queue.enqueue(func(ctx context.Context) {
		r.beginRun()
		if r.banner {
			r.state.logs = append(r.state.logs, report.Banner, report.BannerRule, "")
		}
	})
	return r
}

// Test queues a test. fn may be a callable (see Assert for accepted
// shapes), a *Promise, or a plain value; its result passes when truthy.
// Funcs with other parameters are called with zero values for them.
//
// Outside a run the test is followed by an implicit quiet End.
func (r *Runner) Test(statement string, fn interface{}) *Runner {
	r.queue.enqueue(r.createTest(statement, func(ctx context.Context) (bool, error) {
		v, err := resolveTest(ctx, fn)
		if err != nil {
			return false, err
		}
		return Truthy(v), nil
	}))
	if !r.Running() {
		r.End(false)
	}
	return r
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Pending reports the number of queued tasks that have not started.
func (r *Runner) Pending() int {
	return r.queue.pending()
}

// SetSink replaces the function that prints report lines. A nil sink
// restores the stdout default.
func (r *Runner) SetSink(sink report.LogFunc) {
	if sink == nil {
		sink = report.Stdout()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// Sink returns the current line sink.
func (r *Runner) Sink() report.LogFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}

// SetOnProgress sets the callback that receives each line printed by End,
// the verbose summary lines as they are produced, and a final
// report.Complete message. Nil disables it.
func (r *Runner) SetOnProgress(fn ProgressFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onProgress = fn
}

// OnProgress returns the current progress callback.
func (r *Runner) OnProgress() ProgressFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onProgress
}

// Snapshot queues a read of the run state. The promise resolves once every
// task queued before it has run.
func (r *Runner) Snapshot() *Promise[State] {
	p := NewPromise[State]()
	r.queue.enqueue(func(ctx context.Context) {
		r.mu.Lock()
		running, mocks := r.running, len(r.mocks)
		r.mu.Unlock()

		st := &r.state
		p.Resolve(State{
			Running:          running,
			Section:          st.currentSection,
			TestCount:        st.testCount,
			PassCount:        st.passCount,
			SectionTestCount: st.sectionTestCount,
			SectionPassCount: st.sectionPassCount,
			Buffered:         len(st.logs),
			SectionBuffered:  len(st.sectionLogs),
			Mocks:            mocks,
		})
	})
	return p
}

// beginRun assigns the run ID on the first task of a run.
func (r *Runner) beginRun() {
	if r.state.runID != "" {
		return
	}
	r.state.runID = r.newRunID()
	r.state.startedAt = time.Now()
	r.emit(emit.Event{Msg: emit.MsgRunStart})
	r.logger.Debug("run started", zap.String("run_id", r.state.runID))
}

// log buffers message, in the section buffer when a section is open.
func (r *Runner) log(message string) {
	line := report.Indent(message)
	if r.state.currentSection != "" {
		r.state.sectionLogs = append(r.state.sectionLogs, report.SectionBody(line))
		return
	}
	r.state.logs = append(r.state.logs, line)
}

func (r *Runner) emit(event emit.Event) {
	event.RunID = r.state.runID
	if event.Section == "" {
		event.Section = r.state.currentSection
	}
	r.emitter.Emit(event)
}

// assertionError marks a failure raised while resolving or checking an
// assertion, as opposed to a failing test function.
type assertionError struct {
	err error
}

func (e *assertionError) Error() string { return e.err.Error() }
func (e *assertionError) Unwrap() error { return e.err }

// testBody evaluates one test and reports whether it passed.
type testBody func(ctx context.Context) (bool, error)

// createTest wraps body in a task that numbers, logs and tallies it.
func (r *Runner) createTest(statement string, body testBody) Task {
	return func(ctx context.Context) {
		r.beginRun()
		st := &r.state

		st.testCount++
		ordinal := st.testCount
		section := st.currentSection
		sectionOrdinal := -1
		if section != "" {
			sectionOrdinal = st.sectionTestCount
		}
		st.sectionTestCount++

		r.log(report.TestLine(report.Prefix(section, sectionOrdinal, ordinal), statement))

		started := time.Now()
		passed, err := runBody(ctx, body)
		elapsed := time.Since(started)

		res := report.Result{
			Ordinal:        ordinal,
			Section:        section,
			SectionOrdinal: sectionOrdinal,
			Statement:      statement,
			Duration:       elapsed,
		}
		meta := map[string]interface{}{
			"statement":   statement,
			"duration_ms": elapsed.Milliseconds(),
		}

		var aerr *assertionError
		msg := emit.MsgTestFail
		switch {
		case errors.As(err, &aerr):
			res.AssertionError = true
			res.Message = aerr.err.Error()
			meta["error"] = res.Message
			msg = emit.MsgAssertionError
			r.log(report.AssertionErrorLine(res.Message))
			r.metrics.IncrementAssertionErrors()
		case err != nil:
			res.Message = err.Error()
			meta["error"] = res.Message
			r.log(report.FailureLine(res.Message))
		default:
			res.Passed = passed
			if passed {
				st.passCount++
				st.sectionPassCount++
				msg = emit.MsgTestPass
			}
			r.log(report.OutcomeLine(passed))
		}

		st.results = append(st.results, res)
		r.metrics.RecordTest(res.Passed, elapsed)
		r.emit(emit.Event{Ordinal: ordinal, Msg: msg, Meta: meta})
	}
}

// runBody runs body, turning a panic into a *PanicError.
func runBody(ctx context.Context, body testBody) (passed bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			passed, err = false, &PanicError{Value: rec}
		}
	}()
	return body(ctx)
}
