package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/h2o/internal/ir"
)

// RunWithGolden runs the scenario and compares the canonical JSON of its
// summary against testdata/golden/{scenario.Name}.golden. Verification
// failures fail the test too.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}
	AssertGolden(t, scenario.Name, result.Summary)
	return result
}

// AssertGolden compares a summary against its golden file.
func AssertGolden(t *testing.T, name string, summary ir.Summary) {
	t.Helper()

	data, err := ir.MarshalCanonical(summary)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
