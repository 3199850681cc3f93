package server

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/copyleftdev/hypercube/internal/config"
	apperrors "github.com/copyleftdev/hypercube/internal/errors"
	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/objectives"
	"github.com/copyleftdev/hypercube/internal/optimization/space"
)

var errInvalidRequest = stderrors.New("invalid request")

// Request size limits. Larger problems are rejected before anything is
// allocated for them.
const (
	MaxDimension      = 10_000
	MaxPopulationSize = 100_000
)

// StartRequest describes a maximization to run. Zero valued limits and
// tolerances fall back to the server's OPT_* defaults; missing bounds fall
// back to the objective's suggested bounds.
type StartRequest struct {
	// Objective is a name from the objective registry.
	Objective string `json:"objective"`
	// InitialPoint fixes the dimension. When empty, Dimension is required and
	// the search starts at the center of the bounds.
	InitialPoint []float64 `json:"initial_point,omitempty"`
	Dimension    int       `json:"dimension,omitempty"`

	LowerBound *float64 `json:"lower_bound,omitempty"`
	UpperBound *float64 `json:"upper_bound,omitempty"`

	TolX              float64 `json:"tol_x,omitempty"`
	TolF              float64 `json:"tol_f,omitempty"`
	MaxIterations     int     `json:"max_iterations,omitempty"`
	MaxEvaluations    int     `json:"max_evaluations,omitempty"`
	MaxTimeoutSeconds float64 `json:"max_timeout_seconds,omitempty"`
	PopulationSize    int     `json:"population_size,omitempty"`
	Workers           int     `json:"workers,omitempty"`
	ConvergenceWindow int     `json:"convergence_window,omitempty"`
	RandomSeed        int64   `json:"random_seed,omitempty"`
	Refine            bool    `json:"refine,omitempty"`
}

func badRequest(format string, args ...interface{}) error {
	return apperrors.BadRequest(fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...)), "")
}

// Resolve checks the request against the registry and fills it in from the server
// defaults. The objective function itself is set by the caller.
func (r StartRequest) Resolve(registry *objectives.Registry, defaults config.Optimization) (optimization.OptimizerConfig, objectives.Objective, error) {
	var cfg optimization.OptimizerConfig

	if r.Objective == "" {
		return cfg, objectives.Objective{}, badRequest("objective is required")
	}
	obj, err := registry.Lookup(r.Objective)
	if err != nil {
		return cfg, objectives.Objective{}, apperrors.BadRequest(err, "")
	}

	lower, upper := obj.LowerBound, obj.UpperBound
	if r.LowerBound != nil {
		lower = *r.LowerBound
	}
	if r.UpperBound != nil {
		upper = *r.UpperBound
	}
	if !(upper > lower) {
		return cfg, obj, badRequest("upper_bound %v must be greater than lower_bound %v", upper, lower)
	}
	if !space.FiniteSpan(lower, upper) {
		return cfg, obj, badRequest("bounds [%v, %v] do not span a finite range", lower, upper)
	}

	start := r.InitialPoint
	if len(start) == 0 {
		if r.Dimension < 1 {
			return cfg, obj, badRequest("initial_point or a positive dimension is required")
		}
		if r.Dimension > MaxDimension {
			return cfg, obj, badRequest("dimension %d exceeds the limit of %d", r.Dimension, MaxDimension)
		}
		start = make([]float64, r.Dimension)
		for i := range start {
			start[i] = lower + (upper-lower)/2
		}
	} else if r.Dimension != 0 && r.Dimension != len(start) {
		return cfg, obj, badRequest("dimension %d does not match initial_point of length %d", r.Dimension, len(start))
	}
	if len(start) > MaxDimension {
		return cfg, obj, badRequest("dimension %d exceeds the limit of %d", len(start), MaxDimension)
	}
	if !obj.Accepts(len(start)) {
		return cfg, obj, badRequest("objective %q is not defined in %d dimensions", obj.Name, len(start))
	}

	switch {
	case r.MaxTimeoutSeconds < 0:
		return cfg, obj, badRequest("max_timeout_seconds must not be negative")
	case r.MaxIterations < 0:
		return cfg, obj, badRequest("max_iterations must not be negative")
	case r.MaxEvaluations < 0:
		return cfg, obj, badRequest("max_evaluations must not be negative")
	case r.PopulationSize < 0:
		return cfg, obj, badRequest("population_size must not be negative")
	case r.PopulationSize > MaxPopulationSize:
		return cfg, obj, badRequest("population_size %d exceeds the limit of %d", r.PopulationSize, MaxPopulationSize)
	case r.Workers < 0:
		return cfg, obj, badRequest("workers must not be negative")
	case r.ConvergenceWindow < 0:
		return cfg, obj, badRequest("convergence_window must not be negative")
	case r.TolF < 0 || r.TolX < 0:
		return cfg, obj, badRequest("tol_f and tol_x must not be negative")
	}

	cfg = optimization.OptimizerConfig{
		InitialPoint:      append([]float64(nil), start...),
		LowerBound:        lower,
		UpperBound:        upper,
		TolX:              r.TolX,
		TolF:              r.TolF,
		MaxIterations:     r.MaxIterations,
		MaxEvaluations:    r.MaxEvaluations,
		MaxTimeout:        time.Duration(r.MaxTimeoutSeconds * float64(time.Second)),
		PopulationSize:    r.PopulationSize,
		Workers:           r.Workers,
		ConvergenceWindow: r.ConvergenceWindow,
		RandomSeed:        r.RandomSeed,
		Refine:            r.Refine,
	}
	defaults.Apply(&cfg)
	return cfg, obj, nil
}
