package hypercube

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/evaluation"
	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

const (
	defaultMaxIterations     = 1000
	defaultConvergenceWindow = 30
	defaultTolF              = 0.01
	refineEvaluationsPerDim  = 200
	maxReservedHistory       = 1024
)

var _ optimization.Optimizer = (*HypercubeOptimizer)(nil)

// HypercubeOptimizer maximizes an objective by sampling a hypercube that
// moves towards and shrinks around the best points it finds.
type HypercubeOptimizer struct {
	// Configuration
	config optimization.OptimizerConfig

	// Search region
	hypercube *Hypercube

	// Starting point, evaluated once per run
	initialPoint space.Point

	logger *zap.Logger

	running atomic.Bool

	mu           sync.RWMutex
	bestSolution *optimization.Solution
	history      []optimization.Evaluation
	cancel       context.CancelFunc
}

// OptimizerOption configures a HypercubeOptimizer.
type OptimizerOption func(*HypercubeOptimizer)

// WithLogger sets the logger used for run and iteration messages.
func WithLogger(logger *zap.Logger) OptimizerOption {
	return func(o *HypercubeOptimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewHypercubeOptimizer validates config and builds the optimizer together
// with its initial hypercube.
func NewHypercubeOptimizer(config optimization.OptimizerConfig, opts ...OptimizerOption) (*HypercubeOptimizer, error) {
	o := &HypercubeOptimizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.configure(config); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *HypercubeOptimizer) configure(config optimization.OptimizerConfig) error {
	invalid := func(format string, args ...interface{}) error {
		return optimization.InvalidConfigf(format, args...).
			WithOperation("NewHypercubeOptimizer").
			WithComponent("hypercube")
	}

	if !(config.UpperBound > config.LowerBound) {
		return invalid("upper bound %v must be strictly larger than lower bound %v", config.UpperBound, config.LowerBound)
	}
	if !space.FiniteSpan(config.LowerBound, config.UpperBound) {
		return invalid("bounds [%v, %v] do not span a finite range", config.LowerBound, config.UpperBound)
	}
	if len(config.InitialPoint) == 0 {
		return invalid("initial point is empty")
	}
	for i, x := range config.InitialPoint {
		if !(x >= config.LowerBound && x <= config.UpperBound) {
			return invalid("initial point coordinate %d = %v is outside [%v, %v]", i, x, config.LowerBound, config.UpperBound)
		}
	}
	if config.PopulationSize < 0 {
		return invalid("population size must not be negative, got %d", config.PopulationSize)
	}
	if config.MaxEvaluations < 0 {
		return invalid("evaluation budget must not be negative, got %d", config.MaxEvaluations)
	}
	if config.MaxIterations < 0 {
		return invalid("iteration limit must not be negative, got %d", config.MaxIterations)
	}
	if config.ConvergenceWindow < 0 {
		return invalid("convergence window must not be negative, got %d", config.ConvergenceWindow)
	}
	if config.TolF < 0 || math.IsNaN(config.TolF) {
		return invalid("value tolerance must not be negative, got %v", config.TolF)
	}
	if config.TolX < 0 || math.IsNaN(config.TolX) {
		return invalid("input tolerance must not be negative, got %v", config.TolX)
	}
	if config.MaxTimeout < 0 {
		return invalid("timeout must not be negative, got %s", config.MaxTimeout)
	}

	if config.MaxIterations == 0 {
		config.MaxIterations = defaultMaxIterations
	}
	if config.ConvergenceWindow == 0 {
		config.ConvergenceWindow = defaultConvergenceWindow
	}
	if config.TolF == 0 {
		config.TolF = defaultTolF
	}

	dim := len(config.InitialPoint)
	if config.PopulationSize == 0 {
		config.PopulationSize = dim
	}

	o.config = config
	o.initialPoint = space.FromValues(config.InitialPoint...)
	o.hypercube = New(dim, config.LowerBound, config.UpperBound,
		WithPopulationSize(config.PopulationSize),
		WithWorkers(config.Workers),
		WithRandSource(newSource(config.RandomSeed)),
	)
	return nil
}

func newSource(seed int64) rand.Source {
	if seed == 0 {
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
}

// Maximize runs the search loop on objective. It is not reentrant: a second
// concurrent call returns ErrAlreadyRunning.
func (o *HypercubeOptimizer) Maximize(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.OptimizationResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, optimization.ErrAlreadyRunning
	}
	defer o.running.Store(false)

	return o.run(ctx, objective)
}

// Optimize implements optimization.Optimizer. A config carrying an objective
// replaces the current configuration and hypercube.
func (o *HypercubeOptimizer) Optimize(ctx context.Context, config optimization.OptimizerConfig) (*optimization.OptimizationResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, optimization.ErrAlreadyRunning
	}
	defer o.running.Store(false)

	if config.Objective != nil {
		if err := o.configure(config); err != nil {
			return nil, err
		}
	}
	return o.run(ctx, o.config.Objective)
}

func (o *HypercubeOptimizer) run(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.OptimizationResult, error) {
	if objective == nil {
		return nil, optimization.WrapError(optimization.ErrNoObjective, "cannot maximize").
			WithOperation("Maximize").
			WithComponent("hypercube")
	}

	// Create a cancellable context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.reset(cancel)

	start := time.Now()
	var deadline time.Time
	if o.config.MaxTimeout > 0 {
		deadline = start.Add(o.config.MaxTimeout)
	}

	initial, err := evaluation.Evaluate(o.initialPoint, objective)
	if err != nil {
		return nil, err
	}
	o.record(0, initial)

	var (
		best        = evaluation.NewHeap(o.historyCapacity())
		previous    = initial
		averageF    = initial.Value()
		window      = make([]float64, 0, min(o.config.ConvergenceWindow, maxReservedHistory))
		status      = optimization.IterationLimitReached
		evaluations = 1
		iterations  = 0
		popSize     = o.hypercube.PopulationSize()
	)
	best.Push(initial)

loop:
	for i := 0; i < o.config.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			// When context is cancelled, return nil result with the context error
			return nil, ctx.Err()
		default:
		}

		if o.config.MaxEvaluations > 0 && evaluations+popSize > o.config.MaxEvaluations {
			status = optimization.EvaluationLimitReached
			break loop
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			status = optimization.TimeLimitReached
			break loop
		}

		o.hypercube.RandomizePopulation()
		if err := o.hypercube.Evaluate(objective); err != nil {
			return nil, err
		}
		evaluations += popSize
		iterations = i + 1

		current, _ := o.hypercube.PeekBest()
		best.Push(evaluation.Max(current, previous))
		o.record(iterations, current)

		bestEver, _ := best.Peek()
		stats := optimization.IterationStats{
			Iteration:   iterations,
			BestValue:   current.Value(),
			BestEver:    bestEver.Value(),
			Factor:      1,
			Evaluations: evaluations,
		}

		delta := math.Abs(current.Value() - previous.Value())
		if delta <= o.config.TolF {
			window = append(window, delta)
		} else {
			window = window[:0]
		}
		if len(window) >= o.config.ConvergenceWindow {
			status = optimization.Converged
			stats.Converged = true
			o.notify(stats)
			break loop
		}

		averageF += (current.Value() - averageF) / float64(i+1)

		if current.Value() < averageF || evaluation.Less(current, previous) {
			stats.Skipped = true
			o.notify(stats)
			continue
		}

		candidate := current.Point().Midpoint(previous.Point())
		r := RenormalizedDistance(current.Point(), previous.Point(), o.hypercube.Center(), o.hypercube.Diagonal())
		stats.Factor = ConvergenceFactor(r)

		o.hypercube.Shrink(stats.Factor)
		if c := o.hypercube.DisplaceToClamped(candidate); c != space.NoneOutOfBounds {
			o.logger.Debug("hypercube clamped into initial bounds",
				zap.Int("iteration", iterations),
				zap.Stringer("containment", c),
			)
		}
		previous = current
		o.notify(stats)
	}

	bestEval, _ := best.Peek()
	if o.config.Refine {
		refined, used := o.refine(objective, bestEval, evaluations)
		evaluations += used
		if evaluation.Less(bestEval, refined) {
			bestEval = refined
			o.record(iterations, refined)
		}
	}

	result := &optimization.OptimizationResult{
		Status:       status,
		Message:      status.Message(),
		BestSolution: bestEval.Solution(),
		History:      o.GetHistory(),
		Iterations:   iterations,
		Evaluations:  evaluations,
		Converged:    status == optimization.Converged,
		Duration:     time.Since(start),
	}
	o.setBest(result.BestSolution)

	o.logger.Info("optimization finished",
		zap.Stringer("status", status),
		zap.Int("iterations", iterations),
		zap.Int("evaluations", evaluations),
		zap.Float64("best_value", bestEval.Value()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// refine polishes start with a Nelder-Mead search on -f restricted to the
// initial bounds. It returns the improved evaluation, or start, and the
// number of objective evaluations spent.
func (o *HypercubeOptimizer) refine(objective optimization.ObjectiveFunction, start evaluation.PointEval, spent int) (evaluation.PointEval, int) {
	budget := refineEvaluationsPerDim * o.hypercube.Dimension()
	if o.config.MaxEvaluations > 0 {
		budget = min(budget, o.config.MaxEvaluations-spent-1)
	}
	if budget < 1 {
		return start, 0
	}

	bounds := o.hypercube.InitBounds()
	used := 0

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			used++
			p := space.FromValues(x...).Clamp(bounds)
			v, err := objective(p.Values())
			if err != nil || math.IsNaN(v) {
				return math.Inf(1)
			}
			return -v
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Relative:   1e-6,
			Iterations: 100,
		},
		FuncEvaluations: budget,
	}

	method := &optimize.NelderMead{
		SimplexSize: math.Max(o.hypercube.SideLength()/2, 1e-6),
	}

	result, err := optimize.Minimize(problem, start.Point().Values(), settings, method)
	if result == nil {
		o.logger.Debug("refinement failed", zap.Error(err))
		return start, used
	}

	candidate := space.FromValues(result.X...).Clamp(bounds)
	value, err := objective(candidate.Values())
	used++
	if err != nil || math.IsNaN(value) || value <= start.Value() {
		return start, used
	}

	o.logger.Debug("refinement improved the best point",
		zap.Float64("before", start.Value()),
		zap.Float64("after", value),
		zap.Stringer("status", result.Status),
	)
	return evaluation.New(candidate, value), used
}

func (o *HypercubeOptimizer) notify(stats optimization.IterationStats) {
	if o.config.Verbose {
		o.logger.Info("iteration",
			zap.Int("iteration", stats.Iteration),
			zap.Float64("best_value", stats.BestValue),
			zap.Float64("best_ever", stats.BestEver),
			zap.Float64("factor", stats.Factor),
			zap.Bool("skipped", stats.Skipped),
		)
	}
	if o.config.OnIteration != nil {
		o.config.OnIteration(stats)
	}
}

func (o *HypercubeOptimizer) reset(cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancel = cancel
	o.bestSolution = nil
	o.history = make([]optimization.Evaluation, 0, o.historyCapacity())
}

// historyCapacity bounds the storage reserved up front; longer runs grow it.
func (o *HypercubeOptimizer) historyCapacity() int {
	return min(o.config.MaxIterations+1, maxReservedHistory)
}

// record appends e to the history and updates the best solution.
func (o *HypercubeOptimizer) record(iteration int, e evaluation.PointEval) {
	solution := e.Solution()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = append(o.history, optimization.Evaluation{
		Iteration: iteration,
		Solution:  solution,
	})
	if o.bestSolution == nil || solution.Value > o.bestSolution.Value {
		o.bestSolution = solution
	}
}

func (o *HypercubeOptimizer) setBest(s *optimization.Solution) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bestSolution = s
}

// GetBestSolution returns the best solution found so far
func (o *HypercubeOptimizer) GetBestSolution() *optimization.Solution {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.bestSolution == nil {
		return nil
	}
	s := *o.bestSolution
	s.Parameters = append([]float64(nil), s.Parameters...)
	return &s
}

// GetHistory returns the history of evaluations
func (o *HypercubeOptimizer) GetHistory() []optimization.Evaluation {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]optimization.Evaluation(nil), o.history...)
}

// Stop cancels a running optimization
func (o *HypercubeOptimizer) Stop() {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Hypercube returns the search region. It must not be used while a run is in
// progress.
func (o *HypercubeOptimizer) Hypercube() *Hypercube {
	return o.hypercube
}
