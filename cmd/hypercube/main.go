// Command hypercube runs the hypercube maximizer on a registered benchmark
// objective from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/hypercube/internal/config"
	"github.com/copyleftdev/hypercube/internal/logging"
	"github.com/copyleftdev/hypercube/internal/optimization/objectives"
)

// app holds what the subcommands share.
type app struct {
	cfg      *config.Config
	registry *objectives.Registry
	logLevel string
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hypercube",
		Short: "Derivative-free maximization with a moving, shrinking hypercube",
		Long: `hypercube maximizes a benchmark objective by sampling a hypercube
that moves towards the best points it finds and shrinks as they converge.
Defaults come from the OPT_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(a), newObjectivesCmd(a))
	return cmd
}

// logger writes text logs at level to the command's error stream.
func (a *app) logger(cmd *cobra.Command, level logging.LogLevel) *logging.Logger {
	return logging.New(level, cmd.ErrOrStderr()).
		WithFormat(logging.TextFormat).
		WithField("component", "cli")
}

func (a *app) level() logging.LogLevel {
	switch a.logLevel {
	case "debug":
		return logging.DebugLevel
	case "info":
		return logging.InfoLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.WarnLevel
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{registry: objectives.Default()}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
