// Package engine implements the H2O rendezvous protocol.
//
// Every atom is a goroutine. Atoms never talk to each other directly; they
// meet in a SharedState guarded by the pairing lock and block on counting
// semaphores until they are admitted to a molecule or drained.
//
// ARCHITECTURE:
//
// Actor lifecycle:
//  1. log "started", sleep a random bounded time, log "going to queue"
//  2. Sequencer.Arrive: under the pairing lock, count the atom in and commit
//     a pairing if two hydrogens and one oxygen are waiting
//  3. block on the species wait queue for one admission token
//  4. admitted atoms log "creating molecule m"; the oxygen sleeps the bond
//     time and posts bond-ready twice; every atom logs "molecule m created"
//  5. the three atoms meet at the BondBarrier; the oxygen then releases the
//     pairing lock so the next pairing round may begin
//
// Once the last achievable molecule leaves the barrier the
// ShutdownCoordinator raises the shutdown flag and posts exactly one drain
// token per surplus atom. Drained atoms log "not enough ..." and exit.
//
// LOCKS:
//
// Three locks. Only the pairing lock is held across a blocking wait:
//   - pairing lock: a hand-off binary semaphore. Acquired by the arriving
//     atom; released by that atom when no pairing is possible, otherwise by
//     the molecule's oxygen after the barrier. It serializes whole molecule
//     lifecycles, which keeps molecule ids in barrier-exit order.
//   - bond lock: a mutex around the barrier counters, never held while
//     blocking.
//   - log lock: a mutex around stamping and writing one event.
//
// No atom holds a mutex while parked on a semaphore, and the pairing lock
// is only held across a wait by the atoms of the one molecule in flight,
// so no wait cycle can form.
package engine
