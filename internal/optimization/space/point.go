// Package space implements the vector and hyper-rectangle algebra used by the
// hypercube search.
package space

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Point is a real vector whose dimension is fixed when it is created.
//
// Points are handled as values but share their coordinate storage, so the
// in-place methods are visible through every copy. Use Clone to detach.
// Mixing dimensions in arithmetic is a programming error and panics.
type Point struct {
	vec *mat.VecDense
}

// FromValues creates a point holding a copy of values.
func FromValues(values ...float64) Point {
	if len(values) == 0 {
		panic("space: point dimension cannot be zero")
	}
	data := make([]float64, len(values))
	copy(data, values)
	return Point{vec: mat.NewVecDense(len(data), data)}
}

// Fill creates a point of dimension n with every coordinate set to value.
func Fill(value float64, n int) Point {
	if n <= 0 {
		panic(fmt.Sprintf("space: point dimension must be positive, got %d", n))
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = value
	}
	return Point{vec: mat.NewVecDense(n, data)}
}

// Random draws a point of dimension n with coordinates uniform in [lower, upper].
// A nil src uses the global generator.
func Random(n int, lower, upper float64, src rand.Source) Point {
	if n <= 0 {
		panic(fmt.Sprintf("space: point dimension must be positive, got %d", n))
	}
	if upper < lower {
		panic(fmt.Sprintf("space: random range is empty: [%v, %v]", lower, upper))
	}
	if !FiniteSpan(lower, upper) {
		panic(fmt.Sprintf("space: random range [%v, %v] is not finite", lower, upper))
	}
	dist := distuv.Uniform{Min: lower, Max: upper, Src: src}
	data := make([]float64, n)
	for i := range data {
		data[i] = dist.Rand()
	}
	return Point{vec: mat.NewVecDense(n, data)}
}

// RandomIn draws a point uniformly inside b, axis by axis.
func RandomIn(b Bounds, src rand.Source) Point {
	n := b.Dim()
	data := make([]float64, n)
	for i := range data {
		lo, hi := b.lower.vec.AtVec(i), b.upper.vec.AtVec(i)
		if lo > hi {
			lo, hi = hi, lo
		}
		data[i] = distuv.Uniform{Min: lo, Max: hi, Src: src}.Rand()
	}
	return Point{vec: mat.NewVecDense(n, data)}
}

// Dim returns the number of coordinates. The zero Point has dimension 0.
func (p Point) Dim() int {
	if p.vec == nil {
		return 0
	}
	return p.vec.Len()
}

// Get returns the i-th coordinate and whether i is in range.
func (p Point) Get(i int) (float64, bool) {
	if i < 0 || i >= p.Dim() {
		return 0, false
	}
	return p.vec.AtVec(i), true
}

// Values returns a copy of the coordinates.
func (p Point) Values() []float64 {
	if p.vec == nil {
		return nil
	}
	return mat.Col(nil, 0, p.vec)
}

// Clone returns a point with its own coordinate storage.
func (p Point) Clone() Point {
	if p.vec == nil {
		return Point{}
	}
	return Point{vec: mat.VecDenseCopyOf(p.vec)}
}

func (p Point) mustMatch(op string, q Point) {
	if p.Dim() == 0 || q.Dim() == 0 {
		panic(fmt.Sprintf("space: %s failed: point dimension cannot be zero", op))
	}
	if p.Dim() != q.Dim() {
		panic(fmt.Sprintf("space: %s failed: operands do not have same dimension (%d != %d)", op, p.Dim(), q.Dim()))
	}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	p.mustMatch("addition", q)
	v := mat.NewVecDense(p.Dim(), nil)
	v.AddVec(p.vec, q.vec)
	return Point{vec: v}
}

// AddInPlace adds q to p's coordinates.
func (p Point) AddInPlace(q Point) {
	p.mustMatch("addition", q)
	p.vec.AddVec(p.vec, q.vec)
}

// Subtract returns p - q.
func (p Point) Subtract(q Point) Point {
	p.mustMatch("subtraction", q)
	v := mat.NewVecDense(p.Dim(), nil)
	v.SubVec(p.vec, q.vec)
	return Point{vec: v}
}

// Multiply returns the elementwise product of p and q.
func (p Point) Multiply(q Point) Point {
	p.mustMatch("multiplication", q)
	v := mat.NewVecDense(p.Dim(), nil)
	v.MulElemVec(p.vec, q.vec)
	return Point{vec: v}
}

// Divide returns the elementwise quotient of p and q.
func (p Point) Divide(q Point) Point {
	p.mustMatch("division", q)
	v := mat.NewVecDense(p.Dim(), nil)
	v.DivElemVec(p.vec, q.vec)
	return Point{vec: v}
}

// Scale returns p * factor.
func (p Point) Scale(factor float64) Point {
	v := mat.NewVecDense(p.Dim(), nil)
	v.ScaleVec(factor, p.vec)
	return Point{vec: v}
}

// ScaleInPlace multiplies p's coordinates by factor.
func (p Point) ScaleInPlace(factor float64) {
	p.vec.ScaleVec(factor, p.vec)
}

// Midpoint returns the point halfway between p and q. It does not overflow
// for finite coordinates.
func (p Point) Midpoint(q Point) Point {
	p.mustMatch("midpoint", q)
	v := mat.NewVecDense(p.Dim(), nil)
	v.ScaleVec(0.5, p.vec)
	v.AddScaledVec(v, 0.5, q.vec)
	return Point{vec: v}
}

// Length returns the Euclidean norm.
func (p Point) Length() float64 {
	return mat.Norm(p.vec, 2)
}

// Sum returns the sum of the coordinates.
func (p Point) Sum() float64 {
	return mat.Sum(p.vec)
}

// Max returns the largest coordinate.
func (p Point) Max() float64 {
	return mat.Max(p.vec)
}

// Min returns the smallest coordinate.
func (p Point) Min() float64 {
	return mat.Min(p.vec)
}

// Clamp returns a copy of p with coordinate i limited to
// [b.Lower()[i], b.Upper()[i]].
func (p Point) Clamp(b Bounds) Point {
	p.mustMatch("clamp", b.lower)
	n := p.Dim()
	data := make([]float64, n)
	for i := range data {
		lo, hi := b.lower.vec.AtVec(i), b.upper.vec.AtVec(i)
		data[i] = math.Max(lo, math.Min(p.vec.AtVec(i), hi))
	}
	return Point{vec: mat.NewVecDense(n, data)}
}

// ShrinkTowardsCenterInPlace moves p to center + (p - center) * factor.
// factor must lie in [0, 1]: 0 collapses p onto center, 1 leaves it unchanged.
func (p Point) ShrinkTowardsCenterInPlace(center Point, factor float64) {
	p.mustMatch("shrink", center)
	mustUnitFactor(factor)
	switch factor {
	case 1:
		return
	case 0:
		p.vec.CopyVec(center.vec)
		return
	}
	p.vec.SubVec(p.vec, center.vec)
	p.vec.ScaleVec(factor, p.vec)
	p.vec.AddVec(p.vec, center.vec)
}

// ShrinkTowardsCenter is the copying form of ShrinkTowardsCenterInPlace.
func (p Point) ShrinkTowardsCenter(center Point, factor float64) Point {
	q := p.Clone()
	q.ShrinkTowardsCenterInPlace(center, factor)
	return q
}

// Equal reports whether p and q have the same dimension and coordinates.
func (p Point) Equal(q Point) bool {
	if p.Dim() != q.Dim() {
		return false
	}
	if p.Dim() == 0 {
		return true
	}
	return mat.Equal(p.vec, q.vec)
}

// EqualApprox reports whether p and q match within epsilon, absolutely or
// relatively.
func (p Point) EqualApprox(q Point, epsilon float64) bool {
	if p.Dim() != q.Dim() {
		return false
	}
	if p.Dim() == 0 {
		return true
	}
	return mat.EqualApprox(p.vec, q.vec, epsilon)
}

func (p Point) String() string {
	return fmt.Sprintf("%v", p.Values())
}

func mustUnitFactor(factor float64) {
	if !(factor >= 0 && factor <= 1) {
		panic(fmt.Sprintf("space: shrink factor must be in [0, 1], got %v", factor))
	}
}
