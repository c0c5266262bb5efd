package engine

import (
	"context"

	"github.com/roach88/h2o/internal/ir"
)

// atom runs one actor of species sp from start to exit.
func (r *Reactor) atom(ctx context.Context, sp ir.Species) error {
	id := r.state.NextAtomID(sp)
	r.metrics.started.Inc(1)

	if err := r.emit(sp, id, ir.KindStarted, 0); err != nil {
		return err
	}
	if err := sleep(ctx, r.delay(r.cfg.WaitTime())); err != nil {
		return err
	}
	if err := r.emit(sp, id, ir.KindQueued, 0); err != nil {
		return err
	}

	adm, err := r.seq.Arrive(ctx, sp)
	if err != nil {
		return err
	}
	if adm.Drained {
		return r.emit(sp, id, ir.KindUnpaired, 0)
	}

	if err := r.emit(sp, id, ir.KindCreating, adm.Molecule); err != nil {
		return err
	}
	if sp == ir.Oxygen {
		return r.bondOxygen(ctx, id, adm.Molecule)
	}
	return r.bondHydrogen(ctx, id, adm.Molecule)
}

// bondOxygen forms the bond, tells both hydrogens, waits for them at the
// barrier and then hands the pairing lock back for the next molecule.
func (r *Reactor) bondOxygen(ctx context.Context, id, molecule int64) error {
	if err := sleep(ctx, r.delay(r.cfg.BondTime())); err != nil {
		return err
	}
	r.bondReady.PostN(2)

	if err := r.emit(ir.Oxygen, id, ir.KindCreated, molecule); err != nil {
		return err
	}
	if err := r.barrier.Arrive(ctx); err != nil {
		return err
	}
	r.metrics.created.Inc(1)

	if molecule == r.state.MaxMolecules() {
		r.formed.fire()
	}
	r.state.releaseMolecule()
	return nil
}

// bondHydrogen waits for its oxygen's bond before claiming the molecule.
func (r *Reactor) bondHydrogen(ctx context.Context, id, molecule int64) error {
	if err := r.bondReady.Wait(ctx); err != nil {
		return err
	}
	if err := r.emit(ir.Hydrogen, id, ir.KindCreated, molecule); err != nil {
		return err
	}
	return r.barrier.Arrive(ctx)
}

func (r *Reactor) emit(sp ir.Species, id int64, kind ir.EventKind, molecule int64) error {
	_, err := r.log.Emit(Record{Species: sp, Atom: id, Kind: kind, Molecule: molecule})
	return err
}
