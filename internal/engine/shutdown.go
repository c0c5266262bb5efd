package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/h2o/internal/ir"
)

// DrainResult reports how many drain tokens each queue received.
type DrainResult struct {
	Oxygen   int64
	Hydrogen int64
}

// ShutdownCoordinator releases the atoms that can never be paired.
type ShutdownCoordinator struct {
	state     *SharedState
	oxygenQ   *WaitQueue
	hydrogenQ *WaitQueue
	oxygen    int64
	hydrogen  int64
	logger    *slog.Logger
	metrics   *metrics

	once   sync.Once
	result DrainResult
	err    error
}

// NewShutdownCoordinator prepares the drain for a pool of the given size.
func NewShutdownCoordinator(state *SharedState, oxygenQ, hydrogenQ *WaitQueue, oxygen, hydrogen int64, logger *slog.Logger, m *metrics) *ShutdownCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = newMetrics(nil)
	}
	return &ShutdownCoordinator{
		state:     state,
		oxygenQ:   oxygenQ,
		hydrogenQ: hydrogenQ,
		oxygen:    oxygen,
		hydrogen:  hydrogen,
		logger:    logger,
		metrics:   m,
	}
}

// Drain sets the shutdown flag and posts exactly oxygen-max oxygen tokens
// and hydrogen-2*max hydrogen tokens. Posting more would wake a paired
// atom twice; posting fewer would strand a surplus atom. Only the first
// call has any effect.
//
// It must run after the last molecule left the barrier, or at once when
// no molecule can be formed.
func (c *ShutdownCoordinator) Drain(ctx context.Context) (DrainResult, error) {
	c.once.Do(func() {
		p, err := c.state.lockPairing(ctx)
		if err != nil {
			c.err = err
			return
		}
		p.setShutdown()
		p.unlock()

		m := c.state.MaxMolecules()
		c.result = DrainResult{
			Oxygen:   c.oxygen - m,
			Hydrogen: c.hydrogen - 2*m,
		}
		c.logger.Debug("draining surplus atoms",
			"oxygen", c.result.Oxygen,
			"hydrogen", c.result.Hydrogen,
			"molecules", m,
		)

		for range c.result.Oxygen {
			c.oxygenQ.Admit(Admission{Drained: true})
		}
		for range c.result.Hydrogen {
			c.hydrogenQ.Admit(Admission{Drained: true})
		}
		c.metrics.drained(ir.Oxygen).Inc(c.result.Oxygen)
		c.metrics.drained(ir.Hydrogen).Inc(c.result.Hydrogen)
	})
	return c.result, c.err
}
