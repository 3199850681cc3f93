package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/copyleftdev/hypercube/internal/config"
	apperrors "github.com/copyleftdev/hypercube/internal/errors"
	"github.com/copyleftdev/hypercube/internal/logging"
	"github.com/copyleftdev/hypercube/internal/metrics"
	"github.com/copyleftdev/hypercube/internal/optimization"
	"github.com/copyleftdev/hypercube/internal/optimization/hypercube"
	"github.com/copyleftdev/hypercube/internal/optimization/objectives"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Status is the lifecycle state of an optimization job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the job can no longer change state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// OptimizationState represents the state of an optimization job.
// It tracks the progress, status, and results of an optimization process.
// Fields are guarded by the server's optimizationsMu.
type OptimizationState struct {
	ID            string
	Objective     string
	Status        Status
	StartTime     time.Time
	EndTime       *time.Time
	Progress      float64
	Iteration     int
	Evaluations   int
	MaxIterations int
	BestSolution  *optimization.Solution
	Result        *optimization.OptimizationResult
	Err           error
	Optimizer     *hypercube.HypercubeOptimizer
	CancelFunc    context.CancelFunc
	LastUpdated   time.Time
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg      *config.Config
	logger   Logger
	registry *objectives.Registry
	metrics  *metrics.Metrics

	// Optimization state management
	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex // Protects the optimizations map
	seq             atomic.Uint64
	wg              sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the collectors updated by the server.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRegistry sets the objectives that requests can refer to.
func WithRegistry(r *objectives.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// NewServer creates a new server instance with the given config and logger
// The logger parameter accepts any type that implements the Logger interface
func NewServer(cfg *config.Config, logger Logger, opts ...Option) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		optimizations: make(map[string]*OptimizationState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = objectives.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/objectives", s.handleObjectives)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// startOptimization validates req, registers a job and runs it in the
// background.
func (s *Server) startOptimization(req StartRequest) (*OptimizationState, error) {
	cfg, obj, err := req.Resolve(s.registry, s.cfg.Optimization)
	if err != nil {
		return nil, err
	}
	cfg.Objective = obj.Function

	id := fmt.Sprintf("opt_%d_%d", time.Now().UnixNano(), s.seq.Add(1))
	jobLogger := logging.NewZapLogger(s.logger.WithFields(map[string]interface{}{
		"component":       "optimizer",
		"optimization_id": id,
	}))

	now := time.Now()
	state := &OptimizationState{
		ID:            id,
		Objective:     obj.Name,
		Status:        StatusPending,
		StartTime:     now,
		MaxIterations: cfg.MaxIterations,
		LastUpdated:   now,
	}
	cfg.OnIteration = s.progressFunc(state)

	// Create optimizer
	optimizer, err := hypercube.NewHypercubeOptimizer(cfg, hypercube.WithLogger(jobLogger))
	if err != nil {
		return nil, apperrors.BadRequest(err, "failed to create optimizer")
	}
	state.Optimizer = optimizer

	// Create a cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	state.CancelFunc = cancel

	s.optimizationsMu.Lock()
	if active := s.activeLocked(); active >= s.cfg.Optimization.MaxJobs {
		s.optimizationsMu.Unlock()
		cancel()
		return nil, apperrors.Unavailable("too many active optimizations (%d), try again later", active)
	}
	s.optimizations[id] = state
	s.optimizationsMu.Unlock()

	s.wg.Add(1)
	go s.runOptimization(ctx, state, cfg.Objective)

	s.logger.Info("Optimization started", map[string]interface{}{
		"optimization_id": id,
		"objective":       obj.Name,
		"dimension":       len(cfg.InitialPoint),
	})
	return state, nil
}

func (s *Server) activeLocked() int {
	n := 0
	for _, st := range s.optimizations {
		if !st.Status.Terminal() {
			n++
		}
	}
	return n
}

// progressFunc returns the OnIteration callback that publishes progress.
func (s *Server) progressFunc(state *OptimizationState) func(optimization.IterationStats) {
	return func(stats optimization.IterationStats) {
		s.metrics.ObserveIteration(stats)

		s.optimizationsMu.Lock()
		defer s.optimizationsMu.Unlock()
		state.Iteration = stats.Iteration
		state.Evaluations = stats.Evaluations
		if state.MaxIterations > 0 {
			state.Progress = float64(stats.Iteration) / float64(state.MaxIterations)
		}
		state.LastUpdated = time.Now()
	}
}

// runOptimization executes the optimization process in a goroutine
func (s *Server) runOptimization(ctx context.Context, state *OptimizationState, objective optimization.ObjectiveFunction) {
	defer s.wg.Done()
	defer state.CancelFunc()

	// Update state to running unless it was cancelled in the meantime
	s.optimizationsMu.Lock()
	if state.Status == StatusPending {
		state.Status = StatusRunning
	}
	s.optimizationsMu.Unlock()

	s.metrics.RunStarted()
	start := time.Now()

	result, err := maximize(ctx, state.Optimizer, objective)

	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	now := time.Now()
	state.LastUpdated = now
	if state.EndTime == nil {
		state.EndTime = &now
	}

	switch {
	case err == nil:
		s.metrics.RunFinished(result)
		state.Result = result
		state.BestSolution = result.BestSolution
		state.Iteration = result.Iterations
		state.Evaluations = result.Evaluations
		state.Progress = 1
		if state.Status != StatusCancelled {
			state.Status = StatusCompleted
		}
		s.logger.Info("Optimization completed", map[string]interface{}{
			"optimization_id": state.ID,
			"exit_status":     result.Status.String(),
			"iterations":      result.Iterations,
			"best_value":      result.BestSolution.Value,
		})
	case errors.Is(err, context.Canceled):
		s.metrics.RunFailed("cancelled", time.Since(start))
		state.BestSolution = state.Optimizer.GetBestSolution()
		state.Status = StatusCancelled
	default:
		reason := "error"
		if errors.Is(err, errPanic) {
			reason = "panic"
		}
		s.metrics.RunFailed(reason, time.Since(start))
		state.BestSolution = state.Optimizer.GetBestSolution()
		state.Err = err
		state.Status = StatusFailed
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
	}
}

var errPanic = errors.New("optimization panicked")

// maximize runs the optimizer and turns a panic, such as one raised for an
// objective that returns NaN, into an error.
func maximize(ctx context.Context, optimizer *hypercube.HypercubeOptimizer, objective optimization.ObjectiveFunction) (result *optimization.OptimizationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return optimizer.Maximize(ctx, objective)
}

// cancelOptimization stops a job that has not reached a terminal state.
func (s *Server) cancelOptimization(id string) error {
	s.optimizationsMu.Lock()
	defer s.optimizationsMu.Unlock()

	state, exists := s.optimizations[id]
	if !exists {
		return apperrors.NotFound("optimization %s not found", id)
	}
	if state.Status.Terminal() {
		return apperrors.Conflict("cannot cancel optimization with status: %s", state.Status)
	}

	// Cancel the optimization
	state.Optimizer.Stop()
	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = StatusCancelled
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": id,
	})
	return nil
}

// HistoryEntry is one recorded best point of a run.
type HistoryEntry struct {
	Iteration  int       `json:"iteration"`
	Parameters []float64 `json:"parameters"`
	Value      float64   `json:"value"`
}

// StatusResponse is the externally visible view of a job.
type StatusResponse struct {
	ID           string                 `json:"optimization_id"`
	Objective    string                 `json:"objective"`
	Status       Status                 `json:"status"`
	Progress     float64                `json:"progress"`
	Iteration    int                    `json:"iteration"`
	Evaluations  int                    `json:"evaluations"`
	StartTime    time.Time              `json:"start_time"`
	LastUpdate   time.Time              `json:"last_update"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	BestSolution *optimization.Solution `json:"best_solution,omitempty"`
	CurrentBest  *optimization.Solution `json:"current_best,omitempty"`
	ExitStatus   string                 `json:"exit_status,omitempty"`
	Message      string                 `json:"message,omitempty"`
	Converged    bool                   `json:"converged,omitempty"`
	Error        string                 `json:"error,omitempty"`
	History      []HistoryEntry         `json:"history,omitempty"`
}

// optimizationStatus snapshots the job with the given id.
func (s *Server) optimizationStatus(id string, withHistory bool) (*StatusResponse, error) {
	s.optimizationsMu.RLock()
	state, exists := s.optimizations[id]
	if !exists {
		s.optimizationsMu.RUnlock()
		return nil, apperrors.NotFound("optimization %s not found", id)
	}

	resp := &StatusResponse{
		ID:           state.ID,
		Objective:    state.Objective,
		Status:       state.Status,
		Progress:     state.Progress,
		Iteration:    state.Iteration,
		Evaluations:  state.Evaluations,
		StartTime:    state.StartTime,
		LastUpdate:   state.LastUpdated,
		EndTime:      state.EndTime,
		BestSolution: state.BestSolution,
	}
	if state.Result != nil {
		resp.ExitStatus = state.Result.Status.String()
		resp.Message = state.Result.Message
		resp.Converged = state.Result.Converged
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	optimizer := state.Optimizer
	s.optimizationsMu.RUnlock()

	// The optimizer has its own lock.
	if optimizer != nil {
		resp.CurrentBest = optimizer.GetBestSolution()
		if withHistory {
			for _, eval := range optimizer.GetHistory() {
				if eval.Solution == nil {
					continue
				}
				resp.History = append(resp.History, HistoryEntry{
					Iteration:  eval.Iteration,
					Parameters: eval.Solution.Parameters,
					Value:      eval.Solution.Value,
				})
			}
		}
	}
	return resp, nil
}

// Close cancels all running optimizations and waits for them to return.
func (s *Server) Close() error {
	s.optimizationsMu.RLock()
	for _, opt := range s.optimizations {
		if opt.CancelFunc != nil {
			opt.CancelFunc()
		}
	}
	s.optimizationsMu.RUnlock()

	s.wg.Wait()
	return nil
}
