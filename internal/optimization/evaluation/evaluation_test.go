package evaluation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

func summation(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum, nil
}

func nanFunction([]float64) (float64, error) {
	return math.NaN(), nil
}

func TestNotNaN(t *testing.T) {
	n, err := NewNotNaN(2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, n.Float64())

	_, err = NewNotNaN(math.NaN())
	assert.ErrorIs(t, err, ErrNaN)

	assert.Panics(t, func() { MustNotNaN(math.NaN()) })
	assert.NotPanics(t, func() { MustNotNaN(math.Inf(-1)) })
}

func TestNew(t *testing.T) {
	p := space.Fill(1, 3)
	e := New(p, 3)
	assert.Equal(t, 3.0, e.Value())
	assert.True(t, e.Point().Equal(p))

	p.ScaleInPlace(10)
	assert.True(t, e.Point().Equal(space.Fill(1, 3)), "the evaluation keeps its own copy of the point")

	assert.Panics(t, func() { New(space.Fill(0, 3), math.NaN()) })
}

func TestEvaluate(t *testing.T) {
	e, err := Evaluate(space.Fill(1, 3), summation)
	require.NoError(t, err)
	assert.Equal(t, 3.0, e.Value())

	assert.Panics(t, func() { _, _ = Evaluate(space.Fill(0, 3), nanFunction) })

	boom := errors.New("boom")
	_, err = Evaluate(space.Fill(0, 3), func([]float64) (float64, error) { return 0, boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, optimization.ErrObjective)

	optErr, ok := optimization.IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "evaluation", optErr.Component)
}

func TestOrdering(t *testing.T) {
	a, _ := Evaluate(space.Fill(0, 3), summation)
	b, _ := Evaluate(space.Fill(1, 3), summation)

	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
	assert.False(t, Less(a, a))
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, New(space.Fill(5, 2), 0)), "only the image takes part in the order")

	assert.Equal(t, b, Max(a, b))
	assert.Equal(t, b, Max(b, a))

	tie := New(space.Fill(9, 3), 0)
	assert.True(t, Max(a, tie).Point().Equal(a.Point()), "ties keep the first argument")
}

func TestSolution(t *testing.T) {
	s := New(space.FromValues(1, 2), 7).Solution()
	assert.Equal(t, []float64{1, 2}, s.Parameters)
	assert.Equal(t, 7.0, s.Value)
}

func TestHeapPopsNonIncreasing(t *testing.T) {
	src := rand.NewPCG(21, 42)
	h := NewHeap(0)

	for i := 0; i < 200; i++ {
		p := space.Random(4, -10, 10, src)
		e, err := Evaluate(p, summation)
		require.NoError(t, err)
		h.Push(e)
	}
	require.Equal(t, 200, h.Len())

	top, ok := h.Peek()
	require.True(t, ok)

	prev := math.Inf(1)
	for h.Len() > 0 {
		e, ok := h.Pop()
		require.True(t, ok)
		assert.LessOrEqual(t, e.Value(), prev)
		if prev == math.Inf(1) {
			assert.Equal(t, top.Value(), e.Value())
		}
		prev = e.Value()
	}

	_, ok = h.Pop()
	assert.False(t, ok)
	_, ok = h.Peek()
	assert.False(t, ok)
}

func TestHeapTiesAreStable(t *testing.T) {
	h := NewHeap(4)
	h.Push(New(space.FromValues(1), 5))
	h.Push(New(space.FromValues(2), 5))
	h.Push(New(space.FromValues(3), 1))
	h.Push(New(space.FromValues(4), 5))

	for _, want := range []float64{1, 2, 4, 3} {
		e, ok := h.Pop()
		require.True(t, ok)
		got, _ := e.Point().Get(0)
		assert.Equal(t, want, got)
	}
}

func TestHeapClear(t *testing.T) {
	h := NewHeap(2)
	h.Push(New(space.FromValues(1), 1))
	h.Push(New(space.FromValues(2), 2))
	h.Clear()

	assert.Equal(t, 0, h.Len())
	_, ok := h.Peek()
	assert.False(t, ok)
}
