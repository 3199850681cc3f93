// Package evaluation pairs points with their objective values and orders
// them by value.
package evaluation

import (
	"cmp"
	"errors"
	"fmt"
	"math"

	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

// ErrNaN is returned when a NaN is offered where a NotNaN is required.
var ErrNaN = errors.New("value is NaN")

// NotNaN is a float64 that is guaranteed not to be NaN, which makes its
// ordering total.
type NotNaN float64

// NewNotNaN checks v and converts it.
func NewNotNaN(v float64) (NotNaN, error) {
	if math.IsNaN(v) {
		return 0, ErrNaN
	}
	return NotNaN(v), nil
}

// MustNotNaN is like NewNotNaN but panics on NaN.
func MustNotNaN(v float64) NotNaN {
	n, err := NewNotNaN(v)
	if err != nil {
		panic(err)
	}
	return n
}

// Float64 returns the underlying value.
func (n NotNaN) Float64() float64 { return float64(n) }

// PointEval is a point together with its image under an objective function.
// Evaluations are ordered by image only.
type PointEval struct {
	point space.Point
	image NotNaN
}

// New pairs p with image. A NaN image is a contract violation and panics.
func New(p space.Point, image float64) PointEval {
	nn, err := NewNotNaN(image)
	if err != nil {
		panic(fmt.Sprintf("evaluation: function evaluated at %v returned %v", p, image))
	}
	return PointEval{point: p.Clone(), image: nn}
}

// Evaluate applies fn to p. Errors reported by fn are returned wrapped in
// optimization.ErrObjective; a NaN result panics.
func Evaluate(p space.Point, fn optimization.ObjectiveFunction) (PointEval, error) {
	image, err := fn(p.Values())
	if err != nil {
		return PointEval{}, optimization.WrapErrorf(
			fmt.Errorf("%w: %w", optimization.ErrObjective, err),
			"evaluating %v", p,
		).WithComponent("evaluation")
	}
	return New(p, image), nil
}

// Point returns a copy of the evaluated point.
func (e PointEval) Point() space.Point { return e.point.Clone() }

// Value returns the image.
func (e PointEval) Value() float64 { return e.image.Float64() }

// Image returns the image as a NotNaN.
func (e PointEval) Image() NotNaN { return e.image }

// Solution converts e to the shared result type.
func (e PointEval) Solution() *optimization.Solution {
	return &optimization.Solution{
		Parameters: e.point.Values(),
		Value:      e.Value(),
	}
}

func (e PointEval) String() string {
	return fmt.Sprintf("f(%v) = %v", e.point, e.Value())
}

// Compare returns -1, 0 or +1 as a's image is less than, equal to or greater
// than b's.
func Compare(a, b PointEval) int {
	return cmp.Compare(a.image, b.image)
}

// Less reports whether a's image is strictly smaller than b's.
func Less(a, b PointEval) bool {
	return a.image < b.image
}

// Max returns the evaluation with the larger image, a on ties.
func Max(a, b PointEval) PointEval {
	if Less(a, b) {
		return b
	}
	return a
}
