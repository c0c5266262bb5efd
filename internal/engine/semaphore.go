package engine

import (
	"context"
	"fmt"
)

// Semaphore is a counting semaphore backed by a buffered channel.
//
// Each Post makes exactly one token available and each Wait consumes
// exactly one, so a post wakes at most one waiter and never broadcasts.
// Tokens are not owned: any goroutine may post a token another one waited
// for, which is what the pairing lock's hand-off relies on.
//
// Capacity bounds the outstanding tokens. Posting into a full semaphore
// means the protocol released more tokens than it can ever consume, so it
// panics instead of blocking.
type Semaphore struct {
	name   string
	tokens chan struct{}
}

// NewSemaphore creates a semaphore holding initial of capacity tokens.
func NewSemaphore(name string, capacity, initial int) *Semaphore {
	if capacity < 1 {
		capacity = 1
	}
	s := &Semaphore{name: name, tokens: make(chan struct{}, capacity)}
	for range initial {
		s.tokens <- struct{}{}
	}
	return s
}

// Post releases one token.
func (s *Semaphore) Post() {
	select {
	case s.tokens <- struct{}{}:
	default:
		panic(fmt.Sprintf("semaphore %s: post beyond capacity %d", s.name, cap(s.tokens)))
	}
}

// PostN releases n tokens.
func (s *Semaphore) PostN(n int) {
	for range n {
		s.Post()
	}
}

// Wait consumes one token, blocking until one is available or ctx ends.
func (s *Semaphore) Wait(ctx context.Context) error {
	select {
	case <-s.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Available returns the number of unconsumed tokens.
func (s *Semaphore) Available() int {
	return len(s.tokens)
}

// Admission is the token that wakes one atom parked in a wait queue.
// A pairing issues tokens carrying the molecule id; the shutdown drain
// issues tokens marked Drained.
type Admission struct {
	Molecule int64
	Drained  bool
}

// WaitQueue is a Semaphore whose tokens carry an Admission.
//
// Waiters are released in the order the Go runtime parks channel receivers
// (FIFO in practice); the protocol only needs eventual release.
type WaitQueue struct {
	name   string
	tokens chan Admission
}

// NewWaitQueue creates a queue able to hold capacity pending admissions.
// Every atom of a species receives exactly one admission over a run, so
// the species' atom count is always enough.
func NewWaitQueue(name string, capacity int) *WaitQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WaitQueue{name: name, tokens: make(chan Admission, capacity)}
}

// Admit releases one waiter with the given admission.
func (q *WaitQueue) Admit(a Admission) {
	select {
	case q.tokens <- a:
	default:
		panic(fmt.Sprintf("wait queue %s: admission beyond capacity %d", q.name, cap(q.tokens)))
	}
}

// Await blocks until an admission is available or ctx ends.
func (q *WaitQueue) Await(ctx context.Context) (Admission, error) {
	select {
	case a := <-q.tokens:
		return a, nil
	case <-ctx.Done():
		return Admission{}, ctx.Err()
	}
}

// Pending returns the number of admissions not yet consumed.
func (q *WaitQueue) Pending() int {
	return len(q.tokens)
}
