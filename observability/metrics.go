// Package observability is the optional Prometheus instrumentation layer
// spec.md's ambient stack calls for: a handful of counters and a gauge
// function that a caller can wire into the reactive/scheduler packages
// at the handful of places where something genuinely worth alerting on
// can happen — sustained backpressure violations and scheduler clock
// drift — without the core operators themselves taking a hard
// dependency on Prometheus. Grounded on the teacher pack's own
// promauto-registered CounterVec idiom (linkerd2's
// controller/proxy-injector/metrics.go).
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelOp = "op"
)

var (
	// BackpressureViolations counts BackpressureErrors reported through
	// ReportBackpressureViolation, labelled by operation name. sampleTimed
	// reports its tick-time violations here; debounce's BackpressureErrors
	// are not counted.
	BackpressureViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reactive_backpressure_violations_total",
		Help: "Number of BackpressureError terminal events raised, by operator.",
	}, []string{labelOp})

	// ProtocolViolations counts ProtocolViolationErrors reported through
	// ReportProtocolViolation, labelled by operation name. windowBoundary
	// reports a window's double subscribe here; Single's violations and
	// the global error hook are not counted.
	ProtocolViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reactive_protocol_violations_total",
		Help: "Number of ProtocolViolationError events reported, by operator.",
	}, []string{labelOp})

	// DrainIterations observes how many missed-counter iterations a
	// single drain-loop invocation performed before catching up — a
	// value that stays near 1 under light contention and climbs under a
	// producer that's far faster than its consumer.
	DrainIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reactive_drain_iterations",
		Help:    "Iterations performed by a single drain-loop invocation before it caught up.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// ReportBackpressureViolation increments BackpressureViolations for op.
func ReportBackpressureViolation(op string) {
	BackpressureViolations.WithLabelValues(op).Inc()
}

// ReportProtocolViolation increments ProtocolViolations for op.
func ReportProtocolViolation(op string) {
	ProtocolViolations.WithLabelValues(op).Inc()
}

// ObserveDrainIterations records how many iterations one drain-loop
// invocation took.
func ObserveDrainIterations(n int64) {
	DrainIterations.Observe(float64(n))
}

// reanchorReporter is the subset of scheduler's *timerWorker this
// package needs — satisfied structurally, so observability never
// imports the scheduler package's internal types.
type reanchorReporter interface {
	Reanchors() int64
}

// WatchReanchors registers a gauge function that reports how many times
// worker has had to re-anchor a periodic task's schedule due to clock
// drift or a slow consumer (scheduler/timer_scheduler.go's fireNext).
// worker must be a *scheduler.TimerScheduler-produced Worker; a worker
// that doesn't expose Reanchors (e.g. scheduler.Trampoline) is reported
// as a permanent zero.
func WatchReanchors(name string, worker any) {
	reporter, _ := worker.(reanchorReporter)
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "reactive_scheduler_reanchors",
		Help: "Cumulative count of periodic-task drift re-anchor events for a named scheduler worker.",
		ConstLabels: prometheus.Labels{
			"worker": name,
		},
	}, func() float64 {
		if reporter == nil {
			return 0
		}
		return float64(reporter.Reanchors())
	})
}
