package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veridian-eda/aigpipe/internal/config"
	"github.com/veridian-eda/aigpipe/internal/engine"
	"github.com/veridian-eda/aigpipe/internal/hierarchy"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/store"
	"github.com/veridian-eda/aigpipe/internal/summary"
	"github.com/veridian-eda/aigpipe/internal/task"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Runner overrides the process runner (tests substitute scripted
	// outputs). Nil means real commands.
	Runner proc.Runner
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run the configured engines and extract their results",
		Long: `Run every configured engine against the compiled AIGER model, race
them to the first conclusive verdict, and drive counterexample
post-processing for a failing engine.

The working directory must already contain the compiled model artifacts
under model/ (design_aiger.aig, design_aiger.ywa, design_smt2.smt2, ...).

Example:
  aigpipe run task.yaml
  aigpipe run --verbose task.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(opts, args[0], cmd)
		},
	}

	return cmd
}

func runTask(opts *RunOptions, configPath string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	var db *store.Store
	if cfg.Database != "" {
		db, err = store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open status database", err)
		}
		defer db.Close()
	}

	var design *hierarchy.Design
	if cfg.Design != "" {
		design, err = hierarchy.LoadDesign(cfg.Design)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load design listing", err)
		}
	}

	sched := proc.NewScheduler(opts.Runner, logger)
	t := task.New(cfg, sched, nil, task.WithLogger(logger))
	t.Summary = summary.New(t.Run, db)
	t.Design = design
	t.StatusDB = db

	for i, spec := range cfg.Engines {
		if err := engine.Run(t, i, strings.Fields(spec)); err != nil {
			return WrapExitError(ExitCommandError, "engine dispatch failed", err)
		}
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil {
		return WrapExitError(ExitCommandError, "task aborted", err)
	}

	st := t.Status()
	logger.Info("task finished", "status", st.String())
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", st)
	if st == status.Fail {
		return NewExitError(ExitFailure, "a counterexample was found")
	}
	return nil
}
