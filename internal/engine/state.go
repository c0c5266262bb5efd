package engine

import (
	"context"

	"github.com/roach88/h2o/internal/ir"
)

// SharedState is the one record every atom of a run observes.
//
// Fields fall in three groups:
//   - clocks (action ids, per-species atom ids): atomic, lock-free
//   - maxMolecules: immutable after construction
//   - pairing fields (molecule id, waiting counts, shutdown flag): only
//     reachable through a *pairing, which exists only while the pairing
//     lock is held
type SharedState struct {
	actions     *Clock
	oxygenIDs   *Clock
	hydrogenIDs *Clock

	maxMolecules int64

	lock *Semaphore

	// Guarded by lock.
	molecule  int64
	oxygens   int64
	hydrogens int64
	shutdown  bool
}

// NewSharedState builds the state for a pool of the given size.
func NewSharedState(oxygen, hydrogen int64) *SharedState {
	return &SharedState{
		actions:      NewClock(),
		oxygenIDs:    NewClock(),
		hydrogenIDs:  NewClock(),
		maxMolecules: ir.MaxMolecules(oxygen, hydrogen),
		lock:         NewSemaphore("pairing", 1, 1),
	}
}

// MaxMolecules returns min(oxygen, hydrogen/2). Safe without the lock.
func (s *SharedState) MaxMolecules() int64 {
	return s.maxMolecules
}

// Actions returns the log sequence clock.
func (s *SharedState) Actions() *Clock {
	return s.actions
}

// NextAtomID hands out the next id of the given species, starting at 1.
func (s *SharedState) NextAtomID(sp ir.Species) int64 {
	if sp == ir.Oxygen {
		return s.oxygenIDs.Next()
	}
	return s.hydrogenIDs.Next()
}

// StateSnapshot is a copy of the pairing fields.
type StateSnapshot struct {
	Molecule  int64 `json:"molecule"`
	Oxygens   int64 `json:"oxygens_waiting"`
	Hydrogens int64 `json:"hydrogens_waiting"`
	Shutdown  bool  `json:"shutdown"`
	Actions   int64 `json:"actions"`
}

// Snapshot acquires the pairing lock and copies the pairing fields.
func (s *SharedState) Snapshot(ctx context.Context) (StateSnapshot, error) {
	p, err := s.lockPairing(ctx)
	if err != nil {
		return StateSnapshot{}, err
	}
	defer p.unlock()
	return p.snapshot(), nil
}

// lockPairing acquires the pairing lock.
func (s *SharedState) lockPairing(ctx context.Context) (*pairing, error) {
	if err := s.lock.Wait(ctx); err != nil {
		return nil, err
	}
	return &pairing{s: s}, nil
}

// releaseMolecule releases a pairing lock that was handed off by a
// commit. Called once per molecule, by its oxygen, after the barrier.
func (s *SharedState) releaseMolecule() {
	s.lock.Post()
}

// pairing is the capability to read and mutate the pairing fields.
type pairing struct {
	s *SharedState
}

// arrive counts one more waiting atom.
func (p *pairing) arrive(sp ir.Species) {
	if sp == ir.Oxygen {
		p.s.oxygens++
	} else {
		p.s.hydrogens++
	}
}

// ready reports whether the arrival of sp completes a group. An oxygen
// only needs two waiting hydrogens (it counted itself in); a hydrogen also
// needs a waiting oxygen.
func (p *pairing) ready(sp ir.Species) bool {
	if p.s.shutdown {
		return false
	}
	if sp == ir.Oxygen {
		return p.s.hydrogens >= 2
	}
	return p.s.hydrogens >= 2 && p.s.oxygens >= 1
}

// commit assigns the next molecule id to two hydrogens and one oxygen.
func (p *pairing) commit() int64 {
	p.s.molecule++
	p.s.hydrogens -= 2
	p.s.oxygens--
	return p.s.molecule
}

func (p *pairing) setShutdown() {
	p.s.shutdown = true
}

func (p *pairing) shuttingDown() bool {
	return p.s.shutdown
}

func (p *pairing) snapshot() StateSnapshot {
	return StateSnapshot{
		Molecule:  p.s.molecule,
		Oxygens:   p.s.oxygens,
		Hydrogens: p.s.hydrogens,
		Shutdown:  p.s.shutdown,
		Actions:   p.s.actions.Current(),
	}
}

// unlock releases the pairing lock. The pairing must not be used after.
func (p *pairing) unlock() {
	p.s.lock.Post()
}
