package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/h2o/internal/ir"
)

// Record is what an atom asks the Logger to emit: a fixed event kind plus
// typed fields. The Logger adds the sequence number.
type Record struct {
	Species  ir.Species
	Atom     int64
	Kind     ir.EventKind
	Molecule int64
}

// Logger serializes the events of all atoms into one numbered stream.
//
// Under the log lock it stamps the next action id, hands the event to
// every sink and flushes them, so:
//   - lines never interleave mid-write
//   - sequence numbers follow write order exactly
//   - a line is flushed before the next one is stamped
type Logger struct {
	mu     sync.Mutex // log lock
	clock  *Clock
	sinks  []Sink
	stats  ir.Summary
	closed bool
}

// NewLogger stamps events from clock and writes them to sinks.
func NewLogger(clock *Clock, sinks ...Sink) *Logger {
	return &Logger{clock: clock, sinks: sinks}
}

// Emit stamps and writes one event.
func (l *Logger) Emit(r Record) (ir.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ir.Event{}, NewSinkError(r, errors.New("logger closed"))
	}

	ev := ir.Event{
		Seq:      l.clock.Next(),
		Species:  r.Species,
		Atom:     r.Atom,
		Kind:     r.Kind,
		Molecule: r.Molecule,
	}
	for _, s := range l.sinks {
		if err := s.Write(ev); err != nil {
			return ev, NewSinkError(r, err)
		}
		if err := s.Flush(); err != nil {
			return ev, NewSinkError(r, err)
		}
	}
	l.count(ev)
	return ev, nil
}

// count keeps the run summary; the log lock is held.
func (l *Logger) count(ev ir.Event) {
	l.stats.Lines++
	switch {
	case ev.Kind == ir.KindCreated && ev.Species == ir.Oxygen:
		l.stats.Molecules++
	case ev.Kind == ir.KindUnpaired && ev.Species == ir.Oxygen:
		l.stats.UnpairedOxygen++
	case ev.Kind == ir.KindUnpaired && ev.Species == ir.Hydrogen:
		l.stats.UnpairedHydrogen++
	}
}

// Stats returns the counts of what was emitted so far. Pool sizes are left
// for the caller to fill in.
func (l *Logger) Stats() ir.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Close closes every sink. Further Emit calls fail.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var errs []error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink: %w", err))
		}
	}
	return errors.Join(errs...)
}
