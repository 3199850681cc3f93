package hypercube

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

func TestConvergenceFactor(t *testing.T) {
	assert.Equal(t, 0.8, ConvergenceFactor(0))

	prev := ConvergenceFactor(0)
	for _, r := range []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 100, 1e6, math.Inf(1)} {
		f := ConvergenceFactor(r)
		assert.Less(t, f, 1.0, "r = %v", r)
		assert.GreaterOrEqual(t, f, prev, "r = %v", r)
		prev = f
	}
}

func TestRenormalizedDistance(t *testing.T) {
	b := space.NewBounds(4, 0, 120)
	center, diagonal := b.Center(), b.Diagonal()

	assert.Equal(t, 0.0, RenormalizedDistance(center, center, center, diagonal))
	assert.InDelta(t, 1.0, RenormalizedDistance(b.Lower(), b.Upper(), center, diagonal), 1e-12)
	assert.InDelta(t, 0.5, RenormalizedDistance(b.Lower(), center, center, diagonal), 1e-12)

	a := space.FromValues(10, 20, 30, 40)
	c := space.FromValues(90, 10, 50, 0)
	assert.InDelta(t,
		RenormalizedDistance(a, c, center, diagonal),
		RenormalizedDistance(c, a, center, diagonal),
		1e-12,
	)
}
