package optimization

import (
	"context"
	"time"
)

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Optimize runs the optimization process
	Optimize(ctx context.Context, config OptimizerConfig) (*OptimizationResult, error)

	// GetBestSolution returns the best solution found so far
	GetBestSolution() *Solution

	// GetHistory returns the history of evaluations
	GetHistory() []Evaluation

	// Stop gracefully stops the optimization process
	Stop()
}

// OptimizerConfig contains configuration for the optimizer
type OptimizerConfig struct {
	// Objective function to maximize
	Objective ObjectiveFunction

	// Starting point of the search. Its length fixes the problem dimension.
	InitialPoint []float64

	// Scalar bounds broadcast to every dimension of the initial hypercube.
	// UpperBound-LowerBound must be finite.
	LowerBound float64
	UpperBound float64

	// Input-space tolerance. Accepted and reported but not used to stop the
	// search. Must not be negative.
	TolX float64

	// Output tolerance: |Δf| at or below TolF counts towards convergence.
	// Must not be negative; 0 selects the default of 0.01.
	TolF float64

	// Maximum number of iterations of the search loop. Must not be
	// negative; 0 selects the default of 1000.
	MaxIterations int

	// Budget of objective evaluations, 0 means unlimited
	MaxEvaluations int

	// Wall-clock budget, 0 means unlimited
	MaxTimeout time.Duration

	// Number of sample points per hypercube, defaults to the dimension
	PopulationSize int

	// Number of goroutines evaluating the population, <= 1 is sequential
	Workers int

	// Consecutive within-tolerance iterations required to converge. Must not
	// be negative; 0 selects the default of 30.
	ConvergenceWindow int

	// Random seed for reproducibility
	RandomSeed int64

	// Polish the best point with a bounded Nelder-Mead search at the end
	Refine bool

	// Verbose logging
	Verbose bool

	// OnIteration is called after every iteration of the search loop
	OnIteration func(IterationStats)
}

// ObjectiveFunction defines the function to be optimized
type ObjectiveFunction func([]float64) (float64, error)

// Solution represents a solution in the optimization space
type Solution struct {
	Parameters []float64 `json:"parameters"`
	Value      float64   `json:"value"`
}

// Evaluation represents a single evaluation of the objective function
type Evaluation struct {
	Iteration int
	Solution  *Solution
	Error     error
}

// IterationStats describes one pass of the search loop.
type IterationStats struct {
	Iteration   int
	BestValue   float64
	BestEver    float64
	Factor      float64
	Skipped     bool
	// Converged marks the iteration that ended the run; the hypercube did
	// not move on it.
	Converged   bool
	Evaluations int
}

// ExitStatus classifies how an optimization run ended.
type ExitStatus int

const (
	// Running is the status of a run that has not finished.
	Running ExitStatus = iota
	// Converged means the objective stopped changing within TolF.
	Converged
	// IterationLimitReached means MaxIterations was exhausted.
	IterationLimitReached
	// EvaluationLimitReached means the next iteration would exceed MaxEvaluations.
	EvaluationLimitReached
	// TimeLimitReached means MaxTimeout elapsed.
	TimeLimitReached
)

func (s ExitStatus) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case IterationLimitReached:
		return "iteration_limit_reached"
	case EvaluationLimitReached:
		return "evaluation_limit_reached"
	case TimeLimitReached:
		return "time_limit_reached"
	default:
		return "unknown"
	}
}

// Message returns a human readable description of the status.
func (s ExitStatus) Message() string {
	switch s {
	case Running:
		return "optimization in progress"
	case Converged:
		return "optimization terminated due to image convergence"
	case IterationLimitReached:
		return "maximum number of iterations reached"
	case EvaluationLimitReached:
		return "maximum number of function evaluations reached"
	case TimeLimitReached:
		return "maximum optimization time reached"
	default:
		return "unknown exit status"
	}
}

// MarshalText encodes the status as its string form.
func (s ExitStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	Status       ExitStatus
	Message      string
	BestSolution *Solution
	History      []Evaluation
	Iterations   int
	Evaluations  int
	Converged    bool
	Duration     time.Duration
}
