package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/uber-go/tally/v4"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/engine"
	"github.com/roach88/h2o/internal/ir"
	"github.com/roach88/h2o/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output   string
	Database string

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunOutput is what the run command reports.
type RunOutput struct {
	Report        engine.Report    `json:"report"`
	Args          []string         `json:"args"`
	Output        string           `json:"output"`
	Database      string           `json:"database,omitempty"`
	SummaryDigest string           `json:"summary_digest"`
	Metrics       map[string]int64 `json:"metrics"`
}

func (o RunOutput) String() string {
	s := o.Report.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d molecule(s) from %d O + %d H\n", o.Report.RunID, s.Molecules, s.Oxygen, s.Hydrogen)
	fmt.Fprintf(&b, "  args:     %s\n", strings.Join(o.Args, " "))
	fmt.Fprintf(&b, "  unpaired: %d O, %d H\n", s.UnpairedOxygen, s.UnpairedHydrogen)
	fmt.Fprintf(&b, "  lines:    %d -> %s\n", s.Lines, o.Output)
	if o.Database != "" {
		fmt.Fprintf(&b, "  stored:   %s\n", o.Database)
	}
	fmt.Fprintf(&b, "  digest:   %s", o.SummaryDigest)
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run NO NH TI TB",
		Short: "Run one simulation",
		Long: `Run one simulation of NO oxygen and NH hydrogen atoms.

TI is the maximum time in milliseconds an atom waits before queueing,
TB the maximum time the bond takes to form; both in [0, 1000].
Every event is written to the output file (default h2o.out), one
numbered line each. With --db the run is also stored in SQLite.

Settings may also come from H2O_OUTPUT, H2O_DB and H2O_VERBOSE or from
the file given with --config.

Exit codes:
  0 - Run completed
  1 - Run failed (output file, sink or spawn failure)
  2 - Invalid arguments or settings

Examples:
  h2o run 3 5 100 100
  h2o run 10 20 0 0 --out water.log --db runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", config.DefaultOutput, "path of the event log")
	cmd.Flags().StringVar(&opts.Database, "db", "", "store the run in this SQLite database")

	return cmd
}

func runSimulation(opts *RunOptions, args []string, cmd *cobra.Command) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	if err := engine.CheckPool(cfg); err != nil {
		return WrapExitError(ExitFailure, "cannot allocate run", err)
	}

	settings, err := loadRunSettings(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), settings.Verbose)

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}
	runID := runIDs.Generate()

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	file, err := engine.CreateFileSink(settings.Output)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot open output", err)
	}
	sinks := []engine.Sink{file}

	var st *store.Store
	if settings.Database != "" {
		st, err = openRunStore(ctx, settings.Database, runID, cfg)
		if err != nil {
			file.Close()
			return WrapExitError(ExitFailure, "cannot open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sinks = append(sinks, st.NewEventSink(context.WithoutCancel(ctx), runID))
	}

	scope := tally.NewTestScope("h2o", nil)
	reactor, err := engine.New(cfg,
		engine.WithSinks(sinks...),
		engine.WithLogger(logger),
		engine.WithMetrics(scope),
		engine.WithRunID(runID),
	)
	if err != nil {
		file.Close()
		if st != nil {
			if failErr := st.FailRun(context.WithoutCancel(ctx), runID, err, 0); failErr != nil {
				logger.Error("failed to store run result", "run", runID, "error", failErr)
			}
		}
		if engine.IsResourceError(err) {
			return WrapExitError(ExitFailure, "cannot allocate run", err)
		}
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	report, runErr := reactor.Run(ctx)
	if st != nil {
		persistCtx := context.WithoutCancel(ctx)
		var storeErr error
		if runErr != nil {
			storeErr = st.FailRun(persistCtx, runID, runErr, report.Duration)
		} else {
			storeErr = st.FinishRun(persistCtx, runID, report.Summary, report.Duration)
		}
		if storeErr != nil {
			logger.Error("failed to store run result", "run", runID, "error", storeErr)
		}
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "run failed", runErr)
	}

	digest, err := ir.SummaryDigest(report.Summary)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot digest summary", err)
	}

	return opts.formatter(cmd).Success(RunOutput{
		Report:        report,
		Args:          cfg.Args(),
		Output:        settings.Output,
		Database:      settings.Database,
		SummaryDigest: digest,
		Metrics:       counterSnapshot(scope),
	})
}

// loadRunSettings layers flags over H2O_* variables over the --config file
// over defaults.
func loadRunSettings(opts *RunOptions, cmd *cobra.Command) (config.Settings, error) {
	v, err := config.NewViper(opts.ConfigFile)
	if err != nil {
		return config.Settings{}, err
	}
	bindings := map[string]string{"output": "out", "db": "db", "verbose": "verbose"}
	for key, flag := range bindings {
		f := cmd.Flag(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Settings{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return config.LoadSettings(v)
}

func openRunStore(ctx context.Context, path, runID string, cfg config.Config) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.BeginRun(ctx, runID, cfg); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// signalContext cancels the run on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// counterSnapshot flattens the run counters into "name{tag=value}" keys.
func counterSnapshot(scope tally.TestScope) map[string]int64 {
	out := make(map[string]int64)
	for _, c := range scope.Snapshot().Counters() {
		key := c.Name()
		if tags := c.Tags(); len(tags) > 0 {
			parts := make([]string, 0, len(tags))
			for k, v := range tags {
				parts = append(parts, k+"="+v)
			}
			sort.Strings(parts)
			key += "{" + strings.Join(parts, ",") + "}"
		}
		out[key] += c.Value()
	}
	return out
}
