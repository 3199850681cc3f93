package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/hypercube/internal/logging"
	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/hypercube"
	"github.com/copyleftdev/hypercube/internal/server"
)

type runOptions struct {
	objective      string
	dim            int
	lower          float64
	upper          float64
	initial        []float64
	maxIterations  int
	maxEvaluations int
	timeout        time.Duration
	tolF           float64
	tolX           float64
	population     int
	workers        int
	seed           int64
	window         int
	refine         bool
	verbose        bool
	json           bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Maximize a registered objective",
		Long: `Runs the hypercube maximizer on a registered objective and prints the
best point found together with the reason the search stopped.`,
		Example: `  hypercube run --objective neg_rastrigin --dim 5 --seed 1
  hypercube run --objective neg_rosenbrock --init 0,0 --refine --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaximize(cmd, a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.objective, "objective", "", "Objective name, see 'hypercube objectives' (required)")
	f.IntVar(&opts.dim, "dim", 0, "Problem dimension, required without --init")
	f.Float64Var(&opts.lower, "lower", 0, "Lower bound of every coordinate (default: objective's suggestion)")
	f.Float64Var(&opts.upper, "upper", 0, "Upper bound of every coordinate (default: objective's suggestion)")
	f.Float64SliceVar(&opts.initial, "init", nil, "Initial point, comma separated (default: center of the bounds)")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "Iteration limit (default: OPT_MAX_ITERATIONS)")
	f.IntVar(&opts.maxEvaluations, "max-evaluations", 0, "Objective evaluation budget (default: OPT_MAX_EVALUATIONS)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Wall-clock budget (default: OPT_MAX_TIMEOUT)")
	f.Float64Var(&opts.tolF, "tol-f", 0, "Value tolerance for convergence (default: OPT_TOL_F)")
	f.Float64Var(&opts.tolX, "tol-x", 0, "Input tolerance (default: OPT_TOL_X)")
	f.IntVar(&opts.population, "population", 0, "Sample points per hypercube (default: dimension)")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent objective evaluations (default: OPT_WORKER_COUNT)")
	f.IntVar(&opts.window, "window", 0, "Iterations within tolerance needed to converge (default: OPT_CONVERGENCE_WINDOW)")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed, 0 picks one")
	f.BoolVar(&opts.refine, "refine", false, "Polish the result with Nelder-Mead")
	f.BoolVar(&opts.verbose, "verbose", false, "Log every iteration")
	f.BoolVar(&opts.json, "json", false, "Print the result as JSON")

	cmd.MarkFlagRequired("objective")
	return cmd
}

func (o runOptions) request(cmd *cobra.Command) server.StartRequest {
	req := server.StartRequest{
		Objective:         o.objective,
		InitialPoint:      o.initial,
		Dimension:         o.dim,
		TolX:              o.tolX,
		TolF:              o.tolF,
		MaxIterations:     o.maxIterations,
		MaxEvaluations:    o.maxEvaluations,
		MaxTimeoutSeconds: o.timeout.Seconds(),
		PopulationSize:    o.population,
		Workers:           o.workers,
		ConvergenceWindow: o.window,
		RandomSeed:        o.seed,
		Refine:            o.refine,
	}
	if cmd.Flags().Changed("lower") {
		req.LowerBound = &o.lower
	}
	if cmd.Flags().Changed("upper") {
		req.UpperBound = &o.upper
	}
	return req
}

func runMaximize(cmd *cobra.Command, a *app, opts runOptions) error {
	cfg, obj, err := opts.request(cmd).Resolve(a.registry, a.cfg.Optimization)
	if err != nil {
		return err
	}
	cfg.Objective = obj.Function
	cfg.Verbose = opts.verbose

	// Iterations are logged at info level.
	level := a.level()
	if opts.verbose && level != logging.DebugLevel {
		level = logging.InfoLevel
	}
	logger := a.logger(cmd, level)

	optimizer, err := hypercube.NewHypercubeOptimizer(cfg,
		hypercube.WithLogger(logging.NewZapLogger(logger.WithField("objective", obj.Name))),
	)
	if err != nil {
		return err
	}

	result, err := optimizer.Maximize(cmd.Context(), cfg.Objective)
	if err != nil {
		return fmt.Errorf("maximizing %s: %w", obj.Name, err)
	}

	if opts.json {
		return writeResultJSON(cmd.OutOrStdout(), obj.Name, result)
	}
	return writeResultText(cmd.OutOrStdout(), obj.Name, result)
}

type resultJSON struct {
	Objective   string                  `json:"objective"`
	Status      optimization.ExitStatus `json:"status"`
	Message     string                  `json:"message"`
	Converged   bool                    `json:"converged"`
	Iterations  int                     `json:"iterations"`
	Evaluations int                     `json:"evaluations"`
	DurationMS  float64                 `json:"duration_ms"`
	Best        *optimization.Solution  `json:"best"`
}

func writeResultJSON(w io.Writer, name string, result *optimization.OptimizationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultJSON{
		Objective:   name,
		Status:      result.Status,
		Message:     result.Message,
		Converged:   result.Converged,
		Iterations:  result.Iterations,
		Evaluations: result.Evaluations,
		DurationMS:  float64(result.Duration.Microseconds()) / 1000,
		Best:        result.BestSolution,
	})
}

func writeResultText(w io.Writer, name string, result *optimization.OptimizationResult) error {
	params := make([]string, len(result.BestSolution.Parameters))
	for i, p := range result.BestSolution.Parameters {
		params[i] = fmt.Sprintf("%.6g", p)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "objective\t%s\n", name)
	fmt.Fprintf(tw, "status\t%s\n", result.Status)
	fmt.Fprintf(tw, "message\t%s\n", result.Message)
	fmt.Fprintf(tw, "iterations\t%d\n", result.Iterations)
	fmt.Fprintf(tw, "evaluations\t%d\n", result.Evaluations)
	fmt.Fprintf(tw, "duration\t%s\n", result.Duration.Round(time.Microsecond))
	fmt.Fprintf(tw, "best value\t%.10g\n", result.BestSolution.Value)
	fmt.Fprintf(tw, "best point\t[%s]\n", strings.Join(params, ", "))
	return tw.Flush()
}
