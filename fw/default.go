package fw

import (
	"sync"

	"github.com/dshills/firewyrm/fw/report"
)

var (
	defaultOnce   sync.Once
	defaultRunner *Runner
)

// Default returns the shared runner behind the package-level functions.
// It prints to stdout and has no emitter, store or metrics.
func Default() *Runner {
	defaultOnce.Do(func() {
		r, err := New()
		if err != nil {
			panic(err) // no options, cannot fail
		}
		defaultRunner = r
	})
	return defaultRunner
}

// Start begins a run on the default runner.
func Start() *Runner { return Default().Start() }

// Section opens a section on the default runner.
func Section(name string) *Runner { return Default().Section(name) }

// Test queues a test on the default runner.
func Test(statement string, fn interface{}) *Runner { return Default().Test(statement, fn) }

// Assert starts an assertion on the default runner.
func Assert(statement string, producer interface{}) *Assertion {
	return Default().Assert(statement, producer)
}

// Mock registers a mock on the default runner.
func Mock(fn interface{}) *Mocker { return Default().Mock(fn) }

// Restore undoes mocks registered on the default runner.
func Restore(names ...string) int { return Default().Restore(names...) }

// End flushes the default runner's run.
func End(verbose bool) *Promise[report.Report] { return Default().End(verbose) }

// SetOnProgress sets the default runner's progress callback.
func SetOnProgress(fn ProgressFunc) { Default().SetOnProgress(fn) }

// OnProgress returns the default runner's progress callback.
func OnProgress() ProgressFunc { return Default().OnProgress() }

// SetSink sets the default runner's line sink.
func SetSink(sink report.LogFunc) { Default().SetSink(sink) }

// Sink returns the default runner's line sink.
func Sink() report.LogFunc { return Default().Sink() }
