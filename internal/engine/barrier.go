package engine

import (
	"context"
	"sync"
)

// BondParties is the number of atoms in one molecule.
const BondParties = 3

// BondBarrier makes the three atoms of a molecule leave bonding together.
//
// It is a reusable two-phase barrier. Phase one is the bond counter: the
// third arrival resets it to 0 and opens the exit turnstile for three.
// Phase two counts departures the same way, so every exit token of a
// molecule is consumed by one of its own atoms.
type BondBarrier struct {
	mu         sync.Mutex // bond lock
	counter    int
	departures int

	exit  *Semaphore
	leave *Semaphore
}

// NewBondBarrier creates an empty barrier.
func NewBondBarrier() *BondBarrier {
	return &BondBarrier{
		exit:  NewSemaphore("barrier-exit", 2*BondParties, 0),
		leave: NewSemaphore("barrier-leave", 2*BondParties, 0),
	}
}

// Arrive blocks until all three atoms of the current molecule arrived.
func (b *BondBarrier) Arrive(ctx context.Context) error {
	b.mu.Lock()
	b.counter++
	if b.counter == BondParties {
		b.counter = 0
		b.exit.PostN(BondParties)
	}
	b.mu.Unlock()

	if err := b.exit.Wait(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.departures++
	if b.departures == BondParties {
		b.departures = 0
		b.leave.PostN(BondParties)
	}
	b.mu.Unlock()

	return b.leave.Wait(ctx)
}

// Counter returns the number of atoms waiting in phase one.
func (b *BondBarrier) Counter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counter
}
