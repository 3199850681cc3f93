// Package metrics exposes prometheus collectors for optimization runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/copyleftdev/hypercube/internal/optimization"
)

const namespace = "hypercube"

// Metrics groups the collectors updated by the service.
type Metrics struct {
	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	runsFailed   *prometheus.CounterVec
	activeRuns   prometheus.Gauge
	runDuration  prometheus.Histogram
	evaluations  prometheus.Counter
	iterations   *prometheus.CounterVec
	shrinkFactor prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Number of optimization runs started.",
		}),
		runsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_finished_total",
			Help:      "Number of optimization runs that returned a result, by exit status.",
		}, []string{"status"}),
		runsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Number of optimization runs that ended without a result, by reason.",
		}, []string{"reason"}),
		activeRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of optimization runs in progress.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of finished optimization runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		evaluations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objective_evaluations_total",
			Help:      "Number of objective function evaluations performed by finished runs.",
		}),
		iterations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Number of search loop iterations, by outcome (moved, skipped, converged).",
		}, []string{"outcome"}),
		shrinkFactor: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shrink_factor",
			Help:      "Shrink factors applied to the hypercube.",
			Buckets:   prometheus.LinearBuckets(0.8, 0.02, 10),
		}),
	}
}

// RunStarted records the start of a run.
func (m *Metrics) RunStarted() {
	m.runsStarted.Inc()
	m.activeRuns.Inc()
}

// RunFinished records a run that produced a result.
func (m *Metrics) RunFinished(result *optimization.OptimizationResult) {
	m.activeRuns.Dec()
	m.runsFinished.WithLabelValues(result.Status.String()).Inc()
	m.runDuration.Observe(result.Duration.Seconds())
	m.evaluations.Add(float64(result.Evaluations))
}

// RunFailed records a run that ended with an error. reason is a short label
// such as "cancelled", "error" or "panic".
func (m *Metrics) RunFailed(reason string, elapsed time.Duration) {
	m.activeRuns.Dec()
	m.runsFailed.WithLabelValues(reason).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveIteration records one pass of the search loop. Only iterations that
// moved the hypercube contribute a shrink factor.
func (m *Metrics) ObserveIteration(stats optimization.IterationStats) {
	switch {
	case stats.Converged:
		m.iterations.WithLabelValues("converged").Inc()
		return
	case stats.Skipped:
		m.iterations.WithLabelValues("skipped").Inc()
		return
	}
	m.iterations.WithLabelValues("moved").Inc()
	m.shrinkFactor.Observe(stats.Factor)
}
