package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/h2o/internal/harness"
	"github.com/roach88/h2o/internal/ir"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Oxygen   int64
	Hydrogen int64
}

// VerifyResult is the outcome of checking one log file.
type VerifyResult struct {
	File       string              `json:"file"`
	Pass       bool                `json:"pass"`
	Summary    ir.Summary          `json:"summary"`
	LogDigest  string              `json:"log_digest,omitempty"`
	Violations []harness.Violation `json:"violations,omitempty"`
}

func (r VerifyResult) String() string {
	var b strings.Builder
	if r.Pass {
		fmt.Fprintf(&b, "✓ %s: %d lines, %d molecule(s) (O=%d H=%d)",
			r.File, r.Summary.Lines, r.Summary.Molecules, r.Summary.Oxygen, r.Summary.Hydrogen)
		return b.String()
	}
	fmt.Fprintf(&b, "✗ %s: %d violation(s)", r.File, len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "\n  %s", v.Error())
	}
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <log-file>",
		Short: "Check a run log",
		Long: `Check a run log for well-formed lines, contiguous numbering, complete
atom lifecycles, non-overlapping molecule rounds and a correct drain.

The pool size is taken from --oxygen/--hydrogen, or inferred from the
"started" lines when omitted.

Exit codes:
  0 - Log is correct
  1 - Log is malformed or violates a property
  2 - Command error (missing file, etc.)

Examples:
  h2o verify h2o.out
  h2o verify water.log --oxygen 5 --hydrogen 2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Oxygen, "oxygen", 0, "oxygen atoms in the run (default: inferred)")
	cmd.Flags().Int64Var(&opts.Hydrogen, "hydrogen", 0, "hydrogen atoms in the run (default: inferred)")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open log", err)
	}
	defer f.Close()

	out := opts.formatter(cmd)

	events, err := ir.ParseLog(f)
	if err != nil {
		var lineErr *ir.LineError
		if errors.As(err, &lineErr) {
			_ = out.Error("E_MALFORMED", err.Error(), map[string]any{"file": path, "line": lineErr.Line})
			return WrapExitError(ExitFailure, "malformed log", err)
		}
		return WrapExitError(ExitCommandError, "cannot read log", err)
	}

	oxygen, hydrogen := opts.Oxygen, opts.Hydrogen
	if oxygen == 0 || hydrogen == 0 {
		inferredO, inferredH := poolFromEvents(events)
		if oxygen == 0 {
			oxygen = inferredO
		}
		if hydrogen == 0 {
			hydrogen = inferredH
		}
	}
	if oxygen < 1 || hydrogen < 1 {
		return NewExitError(ExitCommandError,
			"cannot determine pool size; pass --oxygen and --hydrogen")
	}
	out.VerboseLog("verifying %d events against O=%d H=%d", len(events), oxygen, hydrogen)

	v := harness.Verify(events, oxygen, hydrogen)
	digest, err := ir.LogDigest(events)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot digest log", err)
	}

	result := VerifyResult{
		File:       path,
		Pass:       v.OK(),
		Summary:    v.Summary,
		LogDigest:  digest,
		Violations: v.Violations,
	}
	if err := out.Success(result); err != nil {
		return err
	}
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d violation(s)", path, len(v.Violations)))
	}
	return nil
}

// poolFromEvents counts the distinct atoms that logged "started".
func poolFromEvents(events []ir.Event) (oxygen, hydrogen int64) {
	seen := make(map[ir.Species]map[int64]bool, 2)
	for _, ev := range events {
		if ev.Kind != ir.KindStarted {
			continue
		}
		if seen[ev.Species] == nil {
			seen[ev.Species] = make(map[int64]bool)
		}
		seen[ev.Species][ev.Atom] = true
	}
	return int64(len(seen[ir.Oxygen])), int64(len(seen[ir.Hydrogen]))
}
