package fw

import (
	"context"

	"github.com/dshills/firewyrm/fw/emit"
	"github.com/dshills/firewyrm/fw/report"
	"github.com/dshills/firewyrm/fw/store"
	"go.uber.org/zap"
)

// Option is a functional option for configuring a Runner.
//
// Example:
//
//	r, err := fw.New(
//	    fw.WithSink(report.WriterSink(os.Stderr)),
//	    fw.WithEmitter(emit.NewLogEmitter(os.Stdout, true)),
//	    fw.WithStore(store.NewMemStore()),
//	)
type Option func(*runnerConfig) error

// runnerConfig collects options before they are applied to a Runner.
type runnerConfig struct {
	sink       report.LogFunc
	onProgress ProgressFunc
	emitter    emit.Emitter
	store      store.Store
	metrics    *PrometheusMetrics
	logger     *zap.Logger
	ctx        context.Context
	newRunID   func() string
	banner     bool
}

// WithSink sets the function that receives every printed report line.
//
// Default: report.Stdout().
func WithSink(sink report.LogFunc) Option {
	return func(cfg *runnerConfig) error {
		if sink == nil {
			return &RunnerError{Message: "sink must not be nil", Code: "INVALID_OPTION"}
		}
		cfg.sink = sink
		return nil
	}
}

// WithOnProgress sets the progress callback. See SetOnProgress.
func WithOnProgress(fn ProgressFunc) Option {
	return func(cfg *runnerConfig) error {
		cfg.onProgress = fn
		return nil
	}
}

// WithEmitter sets the emitter that receives per-test observability events.
// A nil emitter disables events.
func WithEmitter(emitter emit.Emitter) Option {
	return func(cfg *runnerConfig) error {
		if emitter == nil {
			emitter = emit.NewNullEmitter()
		}
		cfg.emitter = emitter
		return nil
	}
}

// WithStore persists every finished Report. Save failures are logged and
// never reach the caller of End.
func WithStore(st store.Store) Option {
	return func(cfg *runnerConfig) error {
		cfg.store = st
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	r, _ := fw.New(fw.WithMetrics(fw.NewPrometheusMetrics(registry)))
func WithMetrics(metrics *PrometheusMetrics) Option {
	return func(cfg *runnerConfig) error {
		cfg.metrics = metrics
		return nil
	}
}

// WithLogger sets the diagnostic logger. Default: zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *runnerConfig) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		cfg.logger = logger
		return nil
	}
}

// WithContext sets the context handed to every task and to context-aware
// test functions. Default: context.Background().
func WithContext(ctx context.Context) Option {
	return func(cfg *runnerConfig) error {
		if ctx == nil {
			return &RunnerError{Message: "context must not be nil", Code: "INVALID_OPTION"}
		}
		cfg.ctx = ctx
		return nil
	}
}

// WithRunIDFunc overrides how run IDs are generated. Default: random UUIDs.
func WithRunIDFunc(fn func() string) Option {
	return func(cfg *runnerConfig) error {
		if fn == nil {
			return &RunnerError{Message: "run ID function must not be nil", Code: "INVALID_OPTION"}
		}
		cfg.newRunID = fn
		return nil
	}
}

// WithBanner controls whether Start prints the banner. Default: true.
func WithBanner(enabled bool) Option {
	return func(cfg *runnerConfig) error {
		cfg.banner = enabled
		return nil
	}
}
