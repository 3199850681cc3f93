package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/copyleftdev/hypercube/internal/optimization"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization Optimization
}

// Optimization holds the defaults applied to every maximization request.
type Optimization struct {
	WorkerCount       int           `env:"OPT_WORKER_COUNT" envDefault:"4"`
	PopulationSize    int           `env:"OPT_POPULATION_SIZE" envDefault:"0"`
	MaxIterations     int           `env:"OPT_MAX_ITERATIONS" envDefault:"1000"`
	MaxEvaluations    int           `env:"OPT_MAX_EVALUATIONS" envDefault:"0"`
	MaxTimeout        time.Duration `env:"OPT_MAX_TIMEOUT" envDefault:"5m"`
	TolX              float64       `env:"OPT_TOL_X" envDefault:"1e-6"`
	TolF              float64       `env:"OPT_TOL_F" envDefault:"0.01"`
	ConvergenceWindow int           `env:"OPT_CONVERGENCE_WINDOW" envDefault:"30"`
	MaxJobs           int           `env:"OPT_MAX_JOBS" envDefault:"64"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(env.Options{})
}

// LoadFrom reads the configuration from environ instead of the process
// environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the environment parser cannot express.
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: HTTP_PORT %d out of range", c.HTTP.Port)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}

	o := c.Optimization
	switch {
	case o.WorkerCount < 0:
		return fmt.Errorf("config: OPT_WORKER_COUNT must not be negative, got %d", o.WorkerCount)
	case o.PopulationSize < 0:
		return fmt.Errorf("config: OPT_POPULATION_SIZE must not be negative, got %d", o.PopulationSize)
	case o.MaxIterations < 1:
		return fmt.Errorf("config: OPT_MAX_ITERATIONS must be positive, got %d", o.MaxIterations)
	case o.MaxEvaluations < 0:
		return fmt.Errorf("config: OPT_MAX_EVALUATIONS must not be negative, got %d", o.MaxEvaluations)
	case o.MaxTimeout < 0:
		return fmt.Errorf("config: OPT_MAX_TIMEOUT must not be negative, got %s", o.MaxTimeout)
	case o.TolX < 0 || o.TolF < 0:
		return fmt.Errorf("config: OPT_TOL_X and OPT_TOL_F must not be negative")
	case o.ConvergenceWindow < 1:
		return fmt.Errorf("config: OPT_CONVERGENCE_WINDOW must be positive, got %d", o.ConvergenceWindow)
	case o.MaxJobs < 1:
		return fmt.Errorf("config: OPT_MAX_JOBS must be positive, got %d", o.MaxJobs)
	}
	return nil
}

// Apply fills the zero valued fields of cfg with these defaults.
func (o Optimization) Apply(cfg *optimization.OptimizerConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = o.WorkerCount
	}
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = o.PopulationSize
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = o.MaxIterations
	}
	if cfg.MaxEvaluations == 0 {
		cfg.MaxEvaluations = o.MaxEvaluations
	}
	if cfg.MaxTimeout == 0 {
		cfg.MaxTimeout = o.MaxTimeout
	}
	if cfg.TolX == 0 {
		cfg.TolX = o.TolX
	}
	if cfg.TolF == 0 {
		cfg.TolF = o.TolF
	}
	if cfg.ConvergenceWindow == 0 {
		cfg.ConvergenceWindow = o.ConvergenceWindow
	}
}
