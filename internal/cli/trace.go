package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/h2o/internal/ir"
	"github.com/roach88/h2o/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // "latest" selects the most recent run
	Molecule int64  // optional - only the lines of this molecule
}

// RunList is the output of trace without --run.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "No runs stored."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-8s  %5s  %5s  %9s  %5s", "RUN", "STATUS", "O", "H", "MOLECULES", "LINES")
	for _, r := range l.Runs {
		molecules, lines := "-", "-"
		if r.Summary != nil {
			molecules = fmt.Sprint(r.Summary.Molecules)
			lines = fmt.Sprint(r.Summary.Lines)
		}
		fmt.Fprintf(&b, "\n%-36s  %-8s  %5d  %5d  %9s  %5s",
			r.ID, r.Status, r.Config.Oxygen, r.Config.Hydrogen, molecules, lines)
	}
	return b.String()
}

// TraceResult is the output of trace --run.
type TraceResult struct {
	Run    store.Run  `json:"run"`
	Events []ir.Event `json:"events"`
}

func (t TraceResult) String() string {
	var b strings.Builder
	r := t.Run
	fmt.Fprintf(&b, "run %s [%s] NO=%d NH=%d TI=%d TB=%d\n",
		r.ID, r.Status, r.Config.Oxygen, r.Config.Hydrogen, r.Config.WaitMS, r.Config.BondMS)
	if r.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", r.Error)
	}
	if r.Summary != nil {
		fmt.Fprintf(&b, "molecules: %d, unpaired: %d O %d H, lines: %d\n",
			r.Summary.Molecules, r.Summary.UnpairedOxygen, r.Summary.UnpairedHydrogen, r.Summary.Lines)
	}
	_ = ir.WriteLog(&b, t.Events)
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show stored runs",
		Long: `Show runs stored with "h2o run --db".

Without --run, lists every stored run. With --run, prints the run and
its event log in the same format as the output file; --molecule narrows
the log to one molecule's creating/created lines.

Examples:
  h2o trace --db runs.db
  h2o trace --db runs.db --run latest
  h2o trace --db runs.db --run 0190c3e2-... --molecule 3 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", `run id to show, or "latest"`)
	cmd.Flags().Int64Var(&opts.Molecule, "molecule", 0, "only show lines of this molecule")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	out := opts.formatter(cmd)

	if opts.RunID == "" {
		if opts.Molecule != 0 {
			return NewExitError(ExitCommandError, "--molecule requires --run")
		}
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		return out.Success(RunList{Runs: runs})
	}

	var run store.Run
	if opts.RunID == "latest" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, opts.RunID)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "no such run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var events []ir.Event
	if opts.Molecule > 0 {
		events, err = st.ReadMolecule(ctx, run.ID, opts.Molecule)
	} else {
		events, err = st.ReadEvents(ctx, run.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	return out.Success(TraceResult{Run: run, Events: events})
}
