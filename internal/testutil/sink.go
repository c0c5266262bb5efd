package testutil

import (
	"errors"
	"sync"

	"github.com/roach88/h2o/internal/ir"
)

// MemorySink collects events in memory. It satisfies engine.Sink.
//
// Thread-safety: all methods are safe for concurrent use, although the
// engine's Logger only ever calls Write/Flush under its own lock.
type MemorySink struct {
	mu      sync.Mutex
	events  []ir.Event
	flushes int
	closed  bool
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(ev ir.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("memory sink closed")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *MemorySink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []ir.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ir.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Flushes returns how many times Flush was called.
func (s *MemorySink) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

// Closed reports whether Close was called.
func (s *MemorySink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FailingSink accepts After writes and fails every write after that.
type FailingSink struct {
	mu     sync.Mutex
	After  int
	Err    error
	writes int
}

func (s *FailingSink) Write(ir.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writes > s.After {
		if s.Err != nil {
			return s.Err
		}
		return errors.New("sink failure")
	}
	return nil
}

func (s *FailingSink) Flush() error { return nil }

func (s *FailingSink) Close() error { return nil }
