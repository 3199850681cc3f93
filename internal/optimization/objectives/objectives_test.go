package objectives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownValues(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]float64) (float64, error)
		x    []float64
		want float64
	}{
		{"sphere origin", Sphere, []float64{0, 0, 0}, 0},
		{"sphere", Sphere, []float64{1, 2, 3}, 14},
		{"neg sphere", NegSphere, []float64{1, 2, 3}, -14},
		{"rastrigin origin", Rastrigin, []float64{0, 0}, 0},
		{"rastrigin integers", Rastrigin, []float64{1, 2}, 5},
		{"neg rastrigin integers", NegRastrigin, []float64{1, 2}, -5},
		{"neg rosenbrock optimum", NegRosenbrock, []float64{1, 1, 1}, 0},
		{"neg rosenbrock origin", NegRosenbrock, []float64{0, 0}, -1},
		{"neg ackley origin", NegAckley, []float64{0, 0, 0, 0}, 0},
		{"neg eggholder optimum", NegEggholder, []float64{512, 404.2319}, 959.6407},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestDimensionErrors(t *testing.T) {
	_, err := NegEggholder([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = NegRosenbrock([]float64{1})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = NegAckley(nil)
	assert.ErrorIs(t, err, ErrDimension)
}

func TestNegatedAreMaximalAtOptimum(t *testing.T) {
	at := func(fn func([]float64) (float64, error), x []float64) float64 {
		v, err := fn(x)
		require.NoError(t, err)
		return v
	}

	assert.Greater(t, at(NegRastrigin, []float64{0, 0}), at(NegRastrigin, []float64{0.5, -0.3}))
	assert.Greater(t, at(NegAckley, []float64{0, 0}), at(NegAckley, []float64{0.1, 0}))
	assert.Greater(t, at(NegRosenbrock, []float64{1, 1}), at(NegRosenbrock, []float64{1.1, 1}))
}

func TestRegistry(t *testing.T) {
	r := Default()

	names := r.Names()
	assert.Equal(t, []string{
		"neg_ackley",
		"neg_eggholder",
		"neg_rastrigin",
		"neg_rosenbrock",
		"neg_sphere",
		"rastrigin",
		"sphere",
	}, names)
	assert.Len(t, r.List(), len(names))

	o, err := r.Lookup("neg_rastrigin")
	require.NoError(t, err)
	v, err := o.Function([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
	require.NotNil(t, o.Maximum)
	assert.Equal(t, 0.0, *o.Maximum)

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownObjective)

	assert.Panics(t, func() { r.Register(Objective{Name: "empty"}) })
}

func TestAccepts(t *testing.T) {
	r := Default()

	egg, err := r.Lookup("neg_eggholder")
	require.NoError(t, err)
	assert.True(t, egg.Accepts(2))
	assert.False(t, egg.Accepts(3))

	rosen, err := r.Lookup("neg_rosenbrock")
	require.NoError(t, err)
	assert.False(t, rosen.Accepts(1))
	assert.True(t, rosen.Accepts(10))

	sphere, err := r.Lookup("sphere")
	require.NoError(t, err)
	assert.False(t, sphere.Accepts(0))
	assert.True(t, sphere.Accepts(1))
}
