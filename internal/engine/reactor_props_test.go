package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/engine"
	"github.com/roach88/h2o/internal/harness"
	"github.com/roach88/h2o/internal/testutil"
)

// TestRun_PropertiesHold runs many pools many times and checks every log
// against the run properties.
func TestRun_PropertiesHold(t *testing.T) {
	pools := []config.Config{
		{Oxygen: 1, Hydrogen: 2},
		{Oxygen: 5, Hydrogen: 2},
		{Oxygen: 1, Hydrogen: 5},
		{Oxygen: 1, Hydrogen: 1},
		{Oxygen: 4, Hydrogen: 8},
		{Oxygen: 6, Hydrogen: 9},
		{Oxygen: 20, Hydrogen: 30},
	}
	delays := map[string]engine.DelayFunc{
		"none":   engine.NoDelay,
		"random": engine.RandomDelay,
	}

	for _, cfg := range pools {
		for name, delay := range delays {
			cfg := cfg
			if name == "random" {
				cfg.WaitMS, cfg.BondMS = 2, 1
			}
			t.Run(fmt.Sprintf("O%d_H%d_%s", cfg.Oxygen, cfg.Hydrogen, name), func(t *testing.T) {
				runs := 40
				if name == "random" {
					runs = 5
				}
				for i := 0; i < runs; i++ {
					sink := testutil.NewMemorySink()
					r, err := engine.New(cfg, engine.WithDelay(delay), engine.WithSinks(sink))
					require.NoError(t, err)

					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					report, err := r.Run(ctx)
					cancel()
					require.NoError(t, err)

					v := harness.Verify(sink.Events(), int64(cfg.Oxygen), int64(cfg.Hydrogen))
					require.NoError(t, v.Err(), "run %d", i)
					require.Equal(t, v.Summary, report.Summary)
				}
			})
		}
	}
}
