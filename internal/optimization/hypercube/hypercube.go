package hypercube

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"

	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/evaluation"
	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

// ErrOutOfBounds is returned by the checked displacements when the move would
// leave the initial bounds.
var ErrOutOfBounds = errors.New("displacement results in hypercube out of bounds")

// Hypercube is the search region together with its sample population.
//
// The current bounds always lie within the initial bounds and every
// population point lies within the current bounds. Evaluations are dropped
// whenever the population changes.
type Hypercube struct {
	dimension      int
	initBounds     space.Bounds
	currentBounds  space.Bounds
	diagonal       space.Point
	center         space.Point
	populationSize int
	population     []space.Point
	cache          evaluationCache
	workers        int
	src            rand.Source
}

// Option configures a Hypercube.
type Option func(*Hypercube)

// WithPopulationSize sets the number of sample points. Defaults to the
// dimension.
func WithPopulationSize(n int) Option {
	return func(h *Hypercube) { h.populationSize = n }
}

// WithWorkers sets how many goroutines evaluate the population.
func WithWorkers(n int) Option {
	return func(h *Hypercube) { h.workers = n }
}

// WithRandSource sets the generator used to sample the population.
func WithRandSource(src rand.Source) Option {
	return func(h *Hypercube) { h.src = src }
}

// New creates a hypercube spanning [lower, upper] in every dimension and
// fills it with a uniform random population.
func New(dimension int, lower, upper float64, opts ...Option) *Hypercube {
	if dimension <= 0 {
		panic(fmt.Sprintf("hypercube: dimension must be positive, got %d", dimension))
	}
	if !(upper > lower) {
		panic(fmt.Sprintf("hypercube: upper bound %v is not strictly larger than lower bound %v", upper, lower))
	}

	bounds := space.NewBounds(dimension, lower, upper)
	h := &Hypercube{
		dimension:      dimension,
		initBounds:     bounds,
		currentBounds:  bounds.Clone(),
		diagonal:       bounds.Diagonal(),
		center:         bounds.Center(),
		populationSize: dimension,
		workers:        1,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.populationSize < 1 {
		panic(fmt.Sprintf("hypercube: population size must be positive, got %d", h.populationSize))
	}
	if h.src == nil {
		h.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	h.cache = newEvaluationCache(h.populationSize)
	h.population = make([]space.Point, h.populationSize)
	h.fillPopulation()
	return h
}

// Evaluate computes the objective for every population point and stores the
// results. Calling it again without a repopulation, shrink or displacement in
// between stores the results a second time.
//
// With more than one worker the points are evaluated concurrently; results
// are stored in population order once all of them are done. If the objective
// fails nothing is stored.
func (h *Hypercube) Evaluate(objective optimization.ObjectiveFunction) error {
	evals := make([]evaluation.PointEval, len(h.population))

	if h.workers <= 1 {
		for i, p := range h.population {
			e, err := evaluation.Evaluate(p, objective)
			if err != nil {
				return err
			}
			evals[i] = e
		}
	} else {
		p := pool.New().WithErrors().WithMaxGoroutines(h.workers)
		for i, point := range h.population {
			p.Go(func() error {
				e, err := evaluation.Evaluate(point, objective)
				if err != nil {
					return err
				}
				evals[i] = e
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return err
		}
	}

	for _, e := range evals {
		h.cache.add(e)
	}
	return nil
}

// PeekBest returns the evaluation with the largest image.
func (h *Hypercube) PeekBest() (evaluation.PointEval, bool) {
	return h.cache.ordered.Peek()
}

// PopBest removes and returns the evaluation with the largest image.
func (h *Hypercube) PopBest() (evaluation.PointEval, bool) {
	return h.cache.ordered.Pop()
}

// Values returns the stored evaluations in the order they were computed.
func (h *Hypercube) Values() []evaluation.PointEval {
	return append([]evaluation.PointEval(nil), h.cache.values...)
}

// RandomizePopulation redraws the population inside the current bounds.
func (h *Hypercube) RandomizePopulation() {
	h.fillPopulation()
	h.cache.invalidate()
}

// DisplaceBy translates the hypercube by v. The move is rejected with
// ErrOutOfBounds, leaving the hypercube untouched, if it would cross the
// initial bounds.
func (h *Hypercube) DisplaceBy(v space.Point) error {
	h.mustDim("displacement vector", v)

	next := h.currentBounds.DisplaceBy(v)
	if c := next.Within(h.initBounds); c != space.NoneOutOfBounds {
		return optimization.WrapErrorf(ErrOutOfBounds, "%s corner would leave %v", c, h.initBounds).
			WithOperation("DisplaceBy").
			WithComponent("hypercube")
	}

	h.commit(next, v, h.center.Add(v))
	return nil
}

// DisplaceTo moves the center to destination, rejecting moves that would
// cross the initial bounds.
func (h *Hypercube) DisplaceTo(destination space.Point) error {
	h.mustDim("destination", destination)
	return h.DisplaceBy(destination.Subtract(h.center))
}

// DisplaceToClamped moves the center towards destination. When the hypercube
// would cross the initial bounds it is slid back inside them instead, so the
// move always succeeds. It returns how the unclamped move related to the
// initial bounds.
func (h *Hypercube) DisplaceToClamped(destination space.Point) space.Containment {
	h.mustDim("destination", destination)

	shift := destination.Subtract(h.center)
	next := h.currentBounds.DisplaceBy(shift)
	c := next.Within(h.initBounds)
	if c == space.NoneOutOfBounds {
		h.commit(next, shift, h.center.Add(shift))
		return c
	}

	next = next.Clamp(h.initBounds)
	center := next.Center()
	h.commit(next, center.Subtract(h.center), center)
	return c
}

// Shrink contracts the bounds and the population towards the center by
// factor, which must lie in (0, 1].
func (h *Hypercube) Shrink(factor float64) {
	if !(factor > 0 && factor <= 1) {
		panic(fmt.Sprintf("hypercube: shrink factor must be in (0, 1], got %v", factor))
	}

	h.currentBounds = h.currentBounds.ShrinkTowardsCenter(h.center, factor)
	for _, p := range h.population {
		p.ShrinkTowardsCenterInPlace(h.center, factor)
	}
	h.diagonal = h.currentBounds.Diagonal()
	h.cache.invalidate()
}

// commit applies a translation that has already been validated.
func (h *Hypercube) commit(next space.Bounds, shift, center space.Point) {
	for i, p := range h.population {
		p.AddInPlace(shift)
		if !next.Contains(p) {
			h.population[i] = p.Clamp(next)
		}
	}
	h.currentBounds = next
	h.center = center
	h.cache.invalidate()
}

func (h *Hypercube) fillPopulation() {
	for i := range h.population {
		h.population[i] = space.RandomIn(h.currentBounds, h.src)
	}
}

func (h *Hypercube) mustDim(what string, p space.Point) {
	if p.Dim() != h.dimension {
		panic(fmt.Sprintf("hypercube: %s is not the correct dimension. expected %d, got %d", what, h.dimension, p.Dim()))
	}
}

// Dimension returns the dimension of the search space.
func (h *Hypercube) Dimension() int { return h.dimension }

// PopulationSize returns the number of sample points.
func (h *Hypercube) PopulationSize() int { return h.populationSize }

// Population returns copies of the sample points.
func (h *Hypercube) Population() []space.Point {
	out := make([]space.Point, len(h.population))
	for i, p := range h.population {
		out[i] = p.Clone()
	}
	return out
}

// Center returns the midpoint of the current bounds.
func (h *Hypercube) Center() space.Point { return h.center.Clone() }

// Diagonal returns upper - lower of the current bounds.
func (h *Hypercube) Diagonal() space.Point { return h.diagonal.Clone() }

// Bounds returns the current bounds.
func (h *Hypercube) Bounds() space.Bounds { return h.currentBounds.Clone() }

// InitBounds returns the bounds the hypercube was created with.
func (h *Hypercube) InitBounds() space.Bounds { return h.initBounds.Clone() }

// SideLength returns the edge length of the current bounds.
func (h *Hypercube) SideLength() float64 {
	side, _ := h.currentBounds.SideLength()
	return side
}

func (h *Hypercube) String() string {
	return fmt.Sprintf(
		"Dimension: %d\nCurrent bounds: %v\nCenter: %v\nDiagonal length: %.2f\nPopulation size: %d\nValues: %d\n",
		h.dimension, h.currentBounds, h.center, h.diagonal.Length(), h.populationSize, len(h.cache.values),
	)
}

// evaluationCache holds the evaluations of the current population, both in
// computation order and by value. It is either empty or complete.
type evaluationCache struct {
	values  []evaluation.PointEval
	ordered *evaluation.Heap
}

func newEvaluationCache(capacity int) evaluationCache {
	return evaluationCache{
		values:  make([]evaluation.PointEval, 0, capacity),
		ordered: evaluation.NewHeap(capacity),
	}
}

func (c *evaluationCache) add(e evaluation.PointEval) {
	c.values = append(c.values, e)
	c.ordered.Push(e)
}

func (c *evaluationCache) invalidate() {
	clear(c.values)
	c.values = c.values[:0]
	c.ordered.Clear()
}
