package space

import (
	"fmt"
	"math"
)

// Containment classifies how a region sits relative to a limiting region.
type Containment int

const (
	// NoneOutOfBounds means the region lies fully inside the limit.
	NoneOutOfBounds Containment = iota
	// LowerOutOfBounds means only the lower corner crosses the limit.
	LowerOutOfBounds
	// UpperOutOfBounds means only the upper corner crosses the limit.
	UpperOutOfBounds
	// BothOutOfBounds means both corners cross the limit, or the regions are
	// disjoint along some axis.
	BothOutOfBounds
)

func (c Containment) String() string {
	switch c {
	case NoneOutOfBounds:
		return "none"
	case LowerOutOfBounds:
		return "lower"
	case UpperOutOfBounds:
		return "upper"
	case BothOutOfBounds:
		return "both"
	default:
		return fmt.Sprintf("Containment(%d)", int(c))
	}
}

// Bounds is an axis-aligned hyper-rectangle given by its lower and upper
// corners.
//
// Only NewBounds checks that lower < upper. Translated or clamped bounds are
// treated symbolically and are never re-sorted.
type Bounds struct {
	lower Point
	upper Point
}

// NewBounds broadcasts two scalars into a hyper-cube of the given dimension.
func NewBounds(dimension int, lower, upper float64) Bounds {
	if dimension <= 0 {
		panic(fmt.Sprintf("space: bounds dimension must be positive, got %d", dimension))
	}
	if !(upper > lower) {
		panic(fmt.Sprintf("space: upper bound %v is not strictly larger than lower bound %v", upper, lower))
	}
	if !FiniteSpan(lower, upper) {
		panic(fmt.Sprintf("space: span of [%v, %v] is not finite", lower, upper))
	}
	return Bounds{
		lower: Fill(lower, dimension),
		upper: Fill(upper, dimension),
	}
}

// FiniteSpan reports whether lower, upper and upper-lower are all finite.
func FiniteSpan(lower, upper float64) bool {
	span := upper - lower
	return !math.IsInf(span, 0) && !math.IsNaN(span)
}

// NewBoundsFromPoints builds bounds from two corners of equal dimension.
// The corners are copied.
func NewBoundsFromPoints(lower, upper Point) Bounds {
	lower.mustMatch("bounds", upper)
	return Bounds{lower: lower.Clone(), upper: upper.Clone()}
}

// Dim returns the dimension of the corners.
func (b Bounds) Dim() int { return b.lower.Dim() }

// Lower returns a copy of the lower corner.
func (b Bounds) Lower() Point { return b.lower.Clone() }

// Upper returns a copy of the upper corner.
func (b Bounds) Upper() Point { return b.upper.Clone() }

// Clone returns bounds with their own corner storage.
func (b Bounds) Clone() Bounds {
	return Bounds{lower: b.lower.Clone(), upper: b.upper.Clone()}
}

// Diagonal returns upper - lower.
func (b Bounds) Diagonal() Point {
	return b.upper.Subtract(b.lower)
}

// Center returns the midpoint of the two corners.
func (b Bounds) Center() Point {
	return b.lower.Midpoint(b.upper)
}

// SideLength returns the common edge length and true when every axis spans
// the same length. Otherwise it returns the mean edge length and false.
func (b Bounds) SideLength() (float64, bool) {
	diag := b.Diagonal()
	first, _ := diag.Get(0)
	cubic := true
	for i := 1; i < diag.Dim(); i++ {
		v, _ := diag.Get(i)
		if math.Abs(v-first) > 1e-12*math.Max(1, math.Abs(first)) {
			cubic = false
			break
		}
	}
	if cubic {
		return first, true
	}
	return diag.Sum() / float64(diag.Dim()), false
}

// Within compares b's corners against rhs's corners.
func (b Bounds) Within(rhs Bounds) Containment {
	b.lower.mustMatch("within", rhs.lower)

	var lowerOut, upperOut bool
	for i := 0; i < b.Dim(); i++ {
		lo, hi := b.lower.vec.AtVec(i), b.upper.vec.AtVec(i)
		rlo, rhi := rhs.lower.vec.AtVec(i), rhs.upper.vec.AtVec(i)

		// no overlap on this axis, so no translation along it can be legal
		if hi < rlo || lo > rhi {
			return BothOutOfBounds
		}
		if hi > rhi {
			upperOut = true
		}
		if lo < rlo {
			lowerOut = true
		}
	}

	switch {
	case lowerOut && upperOut:
		return BothOutOfBounds
	case upperOut:
		return UpperOutOfBounds
	case lowerOut:
		return LowerOutOfBounds
	default:
		return NoneOutOfBounds
	}
}

// DisplaceBy returns b translated by v.
func (b Bounds) DisplaceBy(v Point) Bounds {
	return Bounds{lower: b.lower.Add(v), upper: b.upper.Add(v)}
}

// ScaleInPlace multiplies both corners by factor.
func (b Bounds) ScaleInPlace(factor float64) {
	b.lower.ScaleInPlace(factor)
	b.upper.ScaleInPlace(factor)
}

// ShrinkTowardsCenter shrinks both corners towards center by factor in [0, 1].
func (b Bounds) ShrinkTowardsCenter(center Point, factor float64) Bounds {
	mustUnitFactor(factor)
	return Bounds{
		lower: b.lower.ShrinkTowardsCenter(center, factor),
		upper: b.upper.ShrinkTowardsCenter(center, factor),
	}
}

// Clamp slides b so that it fits inside limit without changing its size.
//
// When both corners are out the lower corner is corrected first and the upper
// corner second, against the already corrected bounds. If b is wider than
// limit the upper correction wins.
func (b Bounds) Clamp(limit Bounds) Bounds {
	switch b.Within(limit) {
	case NoneOutOfBounds:
		return b.Clone()
	case UpperOutOfBounds:
		return b.slideUpper(limit)
	case LowerOutOfBounds:
		return b.slideLower(limit)
	default:
		return b.slideLower(limit).slideUpper(limit)
	}
}

// slideUpper clamps the upper corner into limit and moves the lower corner by
// the same displacement.
func (b Bounds) slideUpper(limit Bounds) Bounds {
	upper := b.upper.Clamp(limit)
	shift := upper.Subtract(b.upper)
	return Bounds{lower: b.lower.Add(shift), upper: upper}
}

func (b Bounds) slideLower(limit Bounds) Bounds {
	lower := b.lower.Clamp(limit)
	shift := lower.Subtract(b.lower)
	return Bounds{lower: lower, upper: b.upper.Add(shift)}
}

// Contains reports whether p lies inside b, boundaries included.
func (b Bounds) Contains(p Point) bool {
	b.lower.mustMatch("contains", p)
	for i := 0; i < p.Dim(); i++ {
		x := p.vec.AtVec(i)
		lo, hi := b.lower.vec.AtVec(i), b.upper.vec.AtVec(i)
		if x < math.Min(lo, hi) || x > math.Max(lo, hi) {
			return false
		}
	}
	return true
}

// Equal reports whether both corners match exactly.
func (b Bounds) Equal(o Bounds) bool {
	return b.lower.Equal(o.lower) && b.upper.Equal(o.upper)
}

func (b Bounds) String() string {
	return fmt.Sprintf("{lower: %v, upper: %v}", b.lower, b.upper)
}
