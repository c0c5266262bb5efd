package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/h2o/internal/engine"
	"github.com/roach88/h2o/internal/harness"
	"github.com/roach88/h2o/internal/ir"
	"github.com/roach88/h2o/internal/store"
)

// newTestRun builds a run command writing to a temp output file, with
// fixed run ids.
func newTestRun(t *testing.T, format string, ids ...string) (*cobra.Command, *RunOptions, string) {
	t.Helper()
	rootOpts := &RootOptions{Format: format}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	out := filepath.Join(t.TempDir(), "h2o.out")
	require.NoError(t, cmd.Flags().Set("out", out))

	opts := &RunOptions{RootOptions: rootOpts, RunIDs: engine.NewFixedGenerator(ids...)}
	return cmd, opts, out
}

func readLog(t *testing.T, path string) []ir.Event {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	events, err := ir.ParseLog(f)
	require.NoError(t, err)
	return events
}

func TestRunWritesOutputFile(t *testing.T) {
	cmd, opts, out := newTestRun(t, "text", "run-1")

	err := runSimulation(opts, []string{"3", "5", "0", "0"}, cmd)
	require.NoError(t, err)

	events := readLog(t, out)
	v := harness.Verify(events, 3, 5)
	require.NoError(t, v.Err())
	assert.Equal(t, ir.ExpectedSummary(3, 5), v.Summary)

	text := cmd.OutOrStdout().(*bytes.Buffer).String()
	assert.Contains(t, text, "run run-1: 2 molecule(s) from 3 O + 5 H")
	assert.Contains(t, text, "unpaired: 1 O, 1 H")
	assert.Contains(t, text, "args:     3 5 0 0")
}

func TestRunJSONOutput(t *testing.T) {
	cmd, opts, out := newTestRun(t, "json", "run-json")

	require.NoError(t, runSimulation(opts, []string{"2", "4", "0", "0"}, cmd))

	var resp struct {
		Status string    `json:"status"`
		Data   RunOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(cmd.OutOrStdout().(*bytes.Buffer).Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-json", resp.Data.Report.RunID)
	assert.Equal(t, out, resp.Data.Output)
	assert.Equal(t, []string{"2", "4", "0", "0"}, resp.Data.Args)
	assert.Equal(t, ir.ExpectedSummary(2, 4), resp.Data.Report.Summary)

	digest, err := ir.SummaryDigest(ir.ExpectedSummary(2, 4))
	require.NoError(t, err)
	assert.Equal(t, digest, resp.Data.SummaryDigest)

	assert.Equal(t, int64(6), resp.Data.Metrics["h2o."+engine.MetricAtomsStarted])
	assert.Equal(t, int64(2), resp.Data.Metrics["h2o."+engine.MetricMoleculesCreated])
	assert.Equal(t, int64(0), resp.Data.Metrics["h2o."+engine.MetricAtomsDrained+"{species=O}"])
}

func TestRunStoresInDatabase(t *testing.T) {
	cmd, opts, out := newTestRun(t, "text", "run-db")
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, cmd.Flags().Set("db", dbPath))

	require.NoError(t, runSimulation(opts, []string{"1", "3", "0", "0"}, cmd))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(t.Context(), "run-db")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFinished, run.Status)
	require.NotNil(t, run.Summary)
	assert.Equal(t, ir.ExpectedSummary(1, 3), *run.Summary)

	stored, err := st.ReadEvents(t.Context(), "run-db")
	require.NoError(t, err)
	assert.Equal(t, readLog(t, out), stored)

	logDigest, err := ir.LogDigest(stored)
	require.NoError(t, err)
	assert.Equal(t, logDigest, run.LogDigest)
}

func TestRunInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"too few", []string{"1", "2"}, "invalid arguments"},
		{"zero oxygen", []string{"0", "2", "0", "0"}, "invalid oxygen count"},
		{"negative wait", []string{"1", "2", "-1", "0"}, "invalid max wait time"},
		{"bond too long", []string{"1", "2", "0", "1001"}, "invalid max bond time"},
		{"not a number", []string{"1", "two", "0", "0"}, "invalid hydrogen count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, opts, out := newTestRun(t, "text")
			err := runSimulation(opts, tt.args, cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "no output file on invalid arguments")
		})
	}
}

func TestRunOversizedPool(t *testing.T) {
	cmd, opts, out := newTestRun(t, "text", "run-big")

	err := runSimulation(opts, []string{"9000000000000000000", "1", "0", "0"}, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot allocate run")
	assert.True(t, engine.IsResourceError(err))
	assert.ErrorIs(t, err, engine.ErrPoolTooLarge)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file when the pool cannot be allocated")
}

func TestRunUnwritableOutput(t *testing.T) {
	cmd, opts, _ := newTestRun(t, "text", "run-x")
	require.NoError(t, cmd.Flags().Set("out", filepath.Join(t.TempDir(), "missing", "h2o.out")))

	err := runSimulation(opts, []string{"1", "2", "0", "0"}, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot open output")
}

func TestRunSettingsFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "from-config.out")
	cfgPath := filepath.Join(dir, "h2o.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output: "+out+"\n"), 0o644))

	rootOpts := &RootOptions{Format: "text", ConfigFile: cfgPath}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	opts := &RunOptions{RootOptions: rootOpts, RunIDs: engine.NewFixedGenerator("run-cfg")}

	require.NoError(t, runSimulation(opts, []string{"1", "2", "0", "0"}, cmd))
	assert.Len(t, readLog(t, out), 8)
}

func TestRunHelpText(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	assert.Contains(t, cmd.Long, "Exit codes")
	assert.Contains(t, cmd.Long, "h2o.out")
}
