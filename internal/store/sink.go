package store

import (
	"context"

	"github.com/roach88/h2o/internal/ir"
)

// EventSink persists each event of one run as it is logged. It satisfies
// engine.Sink; every Write is its own committed insert.
type EventSink struct {
	ctx   context.Context
	store *Store
	runID string
}

// NewEventSink writes events for runID. The run must already exist.
func (s *Store) NewEventSink(ctx context.Context, runID string) *EventSink {
	return &EventSink{ctx: ctx, store: s, runID: runID}
}

func (s *EventSink) Write(ev ir.Event) error {
	return s.store.WriteEvent(s.ctx, s.runID, ev)
}

// Flush is a no-op: writes are already committed.
func (s *EventSink) Flush() error { return nil }

// Close leaves the store open; its owner closes it.
func (s *EventSink) Close() error { return nil }
