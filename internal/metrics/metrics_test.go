package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypercube/internal/optimization"
)

func TestRunLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RunStarted()
	m.RunStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsStarted))

	m.RunFinished(&optimization.OptimizationResult{
		Status:      optimization.Converged,
		Evaluations: 91,
		Duration:    20 * time.Millisecond,
	})
	m.RunFailed("cancelled", time.Second)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsFinished.WithLabelValues("converged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsFailed.WithLabelValues("cancelled")))
	assert.Equal(t, 91.0, testutil.ToFloat64(m.evaluations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestObserveIteration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveIteration(optimization.IterationStats{Skipped: true, Factor: 1})
	m.ObserveIteration(optimization.IterationStats{Factor: 0.85})
	m.ObserveIteration(optimization.IterationStats{Factor: 0.99})
	m.ObserveIteration(optimization.IterationStats{Converged: true, Factor: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.iterations.WithLabelValues("skipped")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.iterations.WithLabelValues("moved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.iterations.WithLabelValues("converged")))

	expected := `
# HELP hypercube_iterations_total Number of search loop iterations, by outcome (moved, skipped, converged).
# TYPE hypercube_iterations_total counter
hypercube_iterations_total{outcome="converged"} 1
hypercube_iterations_total{outcome="moved"} 2
hypercube_iterations_total{outcome="skipped"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "hypercube_iterations_total"))

	// Only the two moves are shrink samples.
	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() != "hypercube_shrink_factor" {
			continue
		}
		found = true
		h := f.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(2), h.GetSampleCount())
		assert.InDelta(t, 1.84, h.GetSampleSum(), 1e-12)
	}
	assert.True(t, found)
}

func TestRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "collectors cannot be registered twice")
}
