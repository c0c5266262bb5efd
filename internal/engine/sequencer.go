package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/h2o/internal/ir"
)

// Sequencer decides, on each arrival, whether a bonding group is complete.
type Sequencer struct {
	state     *SharedState
	oxygenQ   *WaitQueue
	hydrogenQ *WaitQueue
	logger    *slog.Logger
	metrics   *metrics
}

// NewSequencer wires a sequencer to the state and the two wait queues.
func NewSequencer(state *SharedState, oxygenQ, hydrogenQ *WaitQueue, logger *slog.Logger, m *metrics) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = newMetrics(nil)
	}
	return &Sequencer{
		state:     state,
		oxygenQ:   oxygenQ,
		hydrogenQ: hydrogenQ,
		logger:    logger,
		metrics:   m,
	}
}

// Arrive counts the atom in and blocks until it is admitted.
//
// The pairing lock is held for the whole read-decide-mutate step. On a
// commit the lock is NOT released: the molecule's oxygen releases it after
// the bond barrier. Otherwise it is released before blocking.
//
// The returned admission either names the molecule the atom belongs to
// or is marked Drained.
func (s *Sequencer) Arrive(ctx context.Context, sp ir.Species) (Admission, error) {
	p, err := s.state.lockPairing(ctx)
	if err != nil {
		return Admission{}, err
	}

	p.arrive(sp)
	if p.ready(sp) {
		m := p.commit()
		s.oxygenQ.Admit(Admission{Molecule: m})
		s.hydrogenQ.Admit(Admission{Molecule: m})
		s.hydrogenQ.Admit(Admission{Molecule: m})
		s.metrics.pairings.Inc(1)
		s.logger.Debug("pairing committed", "molecule", m, "trigger", string(sp))
	} else {
		p.unlock()
	}

	return s.queue(sp).Await(ctx)
}

func (s *Sequencer) queue(sp ir.Species) *WaitQueue {
	if sp == ir.Oxygen {
		return s.oxygenQ
	}
	return s.hydrogenQ
}
