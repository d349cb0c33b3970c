package fw

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects Prometheus metrics for FireWyrm runs.
//
// Metrics exposed (all namespaced with "firewyrm_"):
//
// 1. tests_total (counter): Finished tests and assertions.
// Labels: status (pass, fail).
//
// 2. assertion_errors_total (counter): Assertions whose producer or
// predicate failed to evaluate.
//
// 3. queue_depth (gauge): Tasks waiting in the run queue.
//
// 4. test_latency_ms (histogram): Test duration in milliseconds.
// Labels: status (pass, fail).
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000].
//
// 5. runs_total (counter): Completed runs.
// Labels: mode (verbose, quiet).
//
// 6. mocks_active (gauge): Mock records currently registered.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := fw.NewPrometheusMetrics(registry)
//	runner, err := fw.New(fw.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// A nil *PrometheusMetrics is valid and records nothing.
type PrometheusMetrics struct {
	queueDepth  prometheus.Gauge
	mocksActive prometheus.Gauge

	testLatency *prometheus.HistogramVec

	tests           *prometheus.CounterVec
	runs            *prometheus.CounterVec
	assertionErrors prometheus.Counter

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers the runner metrics with
// registry. A nil registry means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.tests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "firewyrm",
		Name:      "tests_total",
		Help:      "Finished tests and assertions by outcome",
	}, []string{"status"})

	pm.assertionErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "firewyrm",
		Name:      "assertion_errors_total",
		Help:      "Assertions whose value or predicate could not be evaluated",
	})

	pm.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "firewyrm",
		Name:      "queue_depth",
		Help:      "Tasks waiting in the run queue",
	})

	pm.testLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "firewyrm",
		Name:      "test_latency_ms",
		Help:      "Test duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	}, []string{"status"})

	pm.runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "firewyrm",
		Name:      "runs_total",
		Help:      "Completed runs by reporting mode",
	}, []string{"mode"}) // mode: verbose, quiet

	pm.mocksActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "firewyrm",
		Name:      "mocks_active",
		Help:      "Mock records currently registered",
	})

	return pm
}

func (pm *PrometheusMetrics) active() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// RecordTest counts a finished test and observes its latency.
func (pm *PrometheusMetrics) RecordTest(passed bool, latency time.Duration) {
	if !pm.active() {
		return
	}
	status := "fail"
	if passed {
		status = "pass"
	}
	pm.tests.WithLabelValues(status).Inc()
	pm.testLatency.WithLabelValues(status).Observe(float64(latency.Milliseconds()))
}

// IncrementAssertionErrors counts an assertion that could not be evaluated.
func (pm *PrometheusMetrics) IncrementAssertionErrors() {
	if !pm.active() {
		return
	}
	pm.assertionErrors.Inc()
}

// UpdateQueueDepth sets the number of pending tasks.
func (pm *PrometheusMetrics) UpdateQueueDepth(depth int) {
	if !pm.active() {
		return
	}
	pm.queueDepth.Set(float64(depth))
}

// IncrementRuns counts a completed run.
func (pm *PrometheusMetrics) IncrementRuns(verbose bool) {
	if !pm.active() {
		return
	}
	mode := "quiet"
	if verbose {
		mode = "verbose"
	}
	pm.runs.WithLabelValues(mode).Inc()
}

// UpdateMocksActive sets the number of registered mock records.
func (pm *PrometheusMetrics) UpdateMocksActive(count int) {
	if !pm.active() {
		return
	}
	pm.mocksActive.Set(float64(count))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset zeroes the gauges. Counters and histograms are cumulative and keep
// their observations.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.queueDepth.Set(0)
	pm.mocksActive.Set(0)
}
