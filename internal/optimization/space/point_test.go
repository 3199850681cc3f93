package space

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointConstruction(t *testing.T) {
	assert.True(t, Fill(4.3, 10).Equal(Fill(4.3, 10)))
	assert.True(t, FromValues(5.2, 4.5, 33.2).Equal(FromValues(5.2, 4.5, 33.2)))
	assert.Equal(t, 10, Fill(4.3, 10).Dim())

	values := []float64{1, 2, 3}
	p := FromValues(values...)
	values[0] = 100
	got, ok := p.Get(0)
	require.True(t, ok)
	assert.Equal(t, 1.0, got, "FromValues must copy its input")

	assert.Panics(t, func() { FromValues() }, "empty value list")
	assert.Panics(t, func() { Fill(1, 0) }, "zero dimension")
}

func TestPointArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Point
		want Point
	}{
		{
			name: "add",
			got:  FromValues(1, 2, 3, 4, 5, 6).Add(FromValues(1, 2, 3, 4, 5, 6)),
			want: FromValues(2, 4, 6, 8, 10, 12),
		},
		{
			name: "add mixed",
			got:  FromValues(129.0, 1211.3, 492.2).Add(FromValues(677.3, 4453.2, 223.1)),
			want: FromValues(129.0+677.3, 1211.3+4453.2, 492.2+223.1),
		},
		{
			name: "subtract to zero",
			got:  FromValues(1, 2, 3, 4, 5, 6).Subtract(FromValues(1, 2, 3, 4, 5, 6)),
			want: Fill(0, 6),
		},
		{
			name: "multiply",
			got:  FromValues(1, 2, 3).Multiply(FromValues(4, 5, 6)),
			want: FromValues(4, 10, 18),
		},
		{
			name: "divide",
			got:  FromValues(4, 10, 18).Divide(FromValues(4, 5, 6)),
			want: FromValues(1, 2, 3),
		},
		{
			name: "scale",
			got:  FromValues(1, -2, 3).Scale(2),
			want: FromValues(2, -4, 6),
		},
		{
			name: "midpoint",
			got:  FromValues(0, 10).Midpoint(FromValues(10, 30)),
			want: FromValues(5, 20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.got), "got %v, want %v", tt.got, tt.want)
		})
	}
}

func TestPointInPlace(t *testing.T) {
	a := Fill(3.0, 4)
	a.AddInPlace(FromValues(2.3, 4.3, 1.2, 6.7))
	assert.True(t, a.EqualApprox(FromValues(5.3, 7.3, 4.2, 9.7), 1e-12), "got %v", a)

	b := Fill(5.6, 10)
	b.AddInPlace(Fill(4.4, 10))
	assert.True(t, b.EqualApprox(Fill(10, 10), 1e-12), "got %v", b)

	c := FromValues(1, 2)
	alias := c
	c.ScaleInPlace(3)
	assert.True(t, alias.Equal(FromValues(3, 6)), "in-place changes are shared by copies")

	clone := c.Clone()
	c.ScaleInPlace(0)
	assert.True(t, clone.Equal(FromValues(3, 6)), "clones are detached")
}

func TestPointReductions(t *testing.T) {
	assert.InDelta(t, math.Sqrt(3), FromValues(1, 1, 1).Length(), 1e-12)
	assert.InDelta(t, math.Sqrt(87), FromValues(2, 5, 3, 7).Length(), 1e-12)
	assert.InDelta(t, math.Sqrt(791569.27), FromValues(4.9, 32.2, 3.1, 889.1).Length(), 1e-9)

	p := FromValues(4, -2, 9, 0.5)
	assert.Equal(t, 11.5, p.Sum())
	assert.Equal(t, 9.0, p.Max())
	assert.Equal(t, -2.0, p.Min())

	v, ok := p.Get(3)
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, ok = p.Get(4)
	assert.False(t, ok)
	_, ok = p.Get(-1)
	assert.False(t, ok)
}

func TestPointDimensionMismatchPanics(t *testing.T) {
	a := Fill(1, 3)
	b := Fill(1, 4)

	assert.Panics(t, func() { a.Add(b) })
	assert.Panics(t, func() { a.Subtract(b) })
	assert.Panics(t, func() { a.Multiply(b) })
	assert.Panics(t, func() { a.Divide(b) })
	assert.Panics(t, func() { a.AddInPlace(b) })
	assert.Panics(t, func() { a.Clamp(NewBounds(4, 0, 1)) })
	assert.Panics(t, func() { a.ShrinkTowardsCenterInPlace(b, 0.5) })
}

func TestRandomPoint(t *testing.T) {
	src := rand.NewPCG(1, 2)
	for i := 0; i < 200; i++ {
		p := Random(5, -3, 7, src)
		require.Equal(t, 5, p.Dim())
		assert.GreaterOrEqual(t, p.Min(), -3.0)
		assert.LessOrEqual(t, p.Max(), 7.0)
	}

	assert.Panics(t, func() { Random(0, 0, 1, src) })
	assert.Panics(t, func() { Random(2, 1, 0, src) })
	assert.Panics(t, func() { Random(2, -1e308, 1e308, src) }, "span overflows")
}

func TestRandomIn(t *testing.T) {
	src := rand.NewPCG(7, 7)
	b := NewBoundsFromPoints(FromValues(0, 10, -5), FromValues(1, 20, -4))
	for i := 0; i < 200; i++ {
		assert.True(t, b.Contains(RandomIn(b, src)))
	}
}

func TestPointClamp(t *testing.T) {
	b := NewBounds(3, 0, 10)

	inside := FromValues(0, 5, 10)
	assert.True(t, inside.Clamp(b).Equal(inside), "clamp is the identity inside the bounds")

	src := rand.NewPCG(3, 4)
	for i := 0; i < 100; i++ {
		p := RandomIn(b, src)
		assert.True(t, p.Clamp(b).Equal(p))
	}

	outside := FromValues(-4, 5, 12)
	assert.True(t, outside.Clamp(b).Equal(FromValues(0, 5, 10)))
	assert.True(t, outside.Equal(FromValues(-4, 5, 12)), "clamp must not mutate the receiver")
}

func TestPointShrinkTowardsCenter(t *testing.T) {
	center := Fill(60, 3)

	tests := []struct {
		name   string
		point  Point
		factor float64
		want   Point
	}{
		{"identity", FromValues(0.1, 33.3, 119.7), 1, FromValues(0.1, 33.3, 119.7)},
		{"collapse", FromValues(0.1, 33.3, 119.7), 0, Fill(60, 3)},
		{"half", FromValues(0, 120, 60), 0.5, FromValues(30, 90, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.point.ShrinkTowardsCenter(center, tt.factor)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)

			inPlace := tt.point.Clone()
			inPlace.ShrinkTowardsCenterInPlace(center, tt.factor)
			assert.True(t, tt.want.Equal(inPlace))
		})
	}

	assert.Panics(t, func() { FromValues(1, 2, 3).ShrinkTowardsCenterInPlace(center, 1.1) })
	assert.Panics(t, func() { FromValues(1, 2, 3).ShrinkTowardsCenterInPlace(center, -0.1) })
	assert.Panics(t, func() { FromValues(1, 2, 3).ShrinkTowardsCenterInPlace(center, math.NaN()) })
}

func TestZeroPoint(t *testing.T) {
	var p Point
	assert.Equal(t, 0, p.Dim())
	assert.Nil(t, p.Values())
	assert.True(t, p.Equal(Point{}))
	assert.Panics(t, func() { p.Add(Fill(1, 1)) })
}
