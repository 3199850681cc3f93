package hypercube

import (
	"math"

	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

const (
	// minShrinkFactor is the factor applied when two consecutive best points
	// coincide.
	minShrinkFactor = 0.8
	// factorDecay controls how quickly the factor approaches 1 with distance.
	factorDecay = 3.0
)

// ConvergenceFactor maps a renormalized distance r to a shrink factor in
// [0.8, 1). Small moves shrink the hypercube hard; large moves barely shrink
// it.
func ConvergenceFactor(r float64) float64 {
	f := 1 - (1-minShrinkFactor)*math.Exp(-factorDecay*r)
	if f >= 1 {
		return math.Nextafter(1, 0)
	}
	return f
}

// RenormalizedDistance expresses a and b relative to center in units of the
// hypercube diagonal and returns their Euclidean distance divided by
// sqrt(dimension), which puts it roughly in [0, 1].
func RenormalizedDistance(a, b, center, diagonal space.Point) float64 {
	na := a.Subtract(center).Divide(diagonal)
	nb := b.Subtract(center).Divide(diagonal)
	return na.Subtract(nb).Length() / math.Sqrt(float64(a.Dim()))
}
