package retry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives per-operation retry measurements
type MetricsCollector interface {
	// RecordAttempt is called before every attempt
	RecordAttempt(name string)

	// RecordSuccess is called once when an operation succeeds
	RecordSuccess(name string, attempts int, duration time.Duration)

	// RecordFailure is called once when an operation gives up
	RecordFailure(name string, attempts int, duration time.Duration)

	// RecordWait is called with the delay chosen before each retry
	RecordWait(name string, wait time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(string)                     {}
func (nopMetrics) RecordSuccess(string, int, time.Duration) {}
func (nopMetrics) RecordFailure(string, int, time.Duration) {}
func (nopMetrics) RecordWait(string, time.Duration)         {}

// PrometheusCollector exports retry metrics labelled by operation name
type PrometheusCollector struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	perOp     *prometheus.HistogramVec
	durations *prometheus.HistogramVec
	waits     *prometheus.HistogramVec
}

// NewPrometheusCollector creates the collector and registers it with reg
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	labels := []string{"operation"}
	c := &PrometheusCollector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "attempts_total",
			Help:      "Number of attempts made, including first attempts.",
		}, labels),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "successes_total",
			Help:      "Number of operations that eventually succeeded.",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "failures_total",
			Help:      "Number of operations that gave up.",
		}, labels),
		perOp: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "attempts_per_operation",
			Help:      "Attempts needed per finished operation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}, labels),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "operation_duration_seconds",
			Help:      "Time from the first attempt until an operation succeeded or gave up, waits included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}, labels),
		waits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "wait_seconds",
			Help:      "Delay chosen before each retry.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, labels),
	}

	for _, col := range []prometheus.Collector{c.attempts, c.successes, c.failures, c.perOp, c.durations, c.waits} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordAttempt implements MetricsCollector
func (c *PrometheusCollector) RecordAttempt(name string) {
	c.attempts.WithLabelValues(name).Inc()
}

// RecordSuccess implements MetricsCollector
func (c *PrometheusCollector) RecordSuccess(name string, attempts int, duration time.Duration) {
	c.successes.WithLabelValues(name).Inc()
	c.perOp.WithLabelValues(name).Observe(float64(attempts))
	c.durations.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordFailure implements MetricsCollector
func (c *PrometheusCollector) RecordFailure(name string, attempts int, duration time.Duration) {
	c.failures.WithLabelValues(name).Inc()
	c.perOp.WithLabelValues(name).Observe(float64(attempts))
	c.durations.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordWait implements MetricsCollector
func (c *PrometheusCollector) RecordWait(name string, wait time.Duration) {
	c.waits.WithLabelValues(name).Observe(wait.Seconds())
}
