package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/h2o/internal/engine"
	"github.com/roach88/h2o/internal/ir"
	"github.com/roach88/h2o/internal/store"
	"github.com/roach88/h2o/internal/testutil"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every run verified and met the expectation.
	Pass bool `json:"pass"`

	// Runs is the number of completed runs.
	Runs int `json:"runs"`

	// Summary is the summary shared by all runs.
	Summary ir.Summary `json:"summary"`

	// Errors lists failures, prefixed by the run they came from.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	delay  engine.DelayFunc
	logger *slog.Logger
}

// WithDelay overrides the engine delay source (default: random delays
// from the scenario's limits).
func WithDelay(fn engine.DelayFunc) Option {
	return func(r *runner) {
		r.delay = fn
	}
}

// WithLogger sets the diagnostic logger; logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// Run executes the scenario Runs times. Each run is persisted to a fresh
// in-memory store, read back and verified, so the stored log is what is
// checked. An error is returned only when a run could not be executed.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rn := &runner{
		delay:  engine.RandomDelay,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rn)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	cfg := scenario.Config()
	expected := ir.ExpectedSummary(int64(cfg.Oxygen), int64(cfg.Hydrogen))
	result := NewResult()

	for i := 1; i <= scenario.Runs; i++ {
		runID := fmt.Sprintf("%s-%04d", scenario.Name, i)
		if err := st.BeginRun(ctx, runID, cfg); err != nil {
			return nil, err
		}

		mem := testutil.NewMemorySink()
		reactor, err := engine.New(cfg,
			engine.WithRunID(runID),
			engine.WithDelay(rn.delay),
			engine.WithLogger(rn.logger),
			engine.WithSinks(mem, st.NewEventSink(ctx, runID)),
		)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		report, err := reactor.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		if err := st.FinishRun(ctx, runID, report.Summary, report.Duration); err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}

		stored, err := st.ReadEvents(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		summary := checkRun(result, i, stored, mem.Events(), report.Summary, scenario)
		if summary != expected {
			result.AddError("run %d: summary %+v, expected %+v", i, summary, expected)
		}
		if i == 1 {
			result.Summary = summary
		}
		result.Runs++
	}
	return result, nil
}

// checkRun verifies one run, records every failure in result and returns
// the summary derived from the stored log.
func checkRun(result *Result, run int, stored, written []ir.Event, reported ir.Summary, scenario *Scenario) ir.Summary {
	if len(stored) != len(written) {
		result.AddError("run %d: store holds %d events, sink saw %d", run, len(stored), len(written))
	}

	v := Verify(stored, int64(scenario.Oxygen), int64(scenario.Hydrogen))
	for _, viol := range v.Violations {
		result.AddError("run %d: %s", run, viol.Error())
	}
	if v.Summary != reported {
		result.AddError("run %d: engine reported %+v, log shows %+v", run, reported, v.Summary)
	}
	for _, msg := range scenario.Expect.mismatches(v.Summary) {
		result.AddError("run %d: %s", run, msg)
	}
	return v.Summary
}

func (e *Expectation) mismatches(s ir.Summary) []string {
	if e == nil {
		return nil
	}
	var out []string
	check := func(name string, want *int64, got int64) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("expected %s %d, got %d", name, *want, got))
		}
	}
	check("molecules", e.Molecules, s.Molecules)
	check("unpaired_oxygen", e.UnpairedOxygen, s.UnpairedOxygen)
	check("unpaired_hydrogen", e.UnpairedHydrogen, s.UnpairedHydrogen)
	check("lines", e.Lines, s.Lines)
	return out
}
