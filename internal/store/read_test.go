package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/h2o/internal/ir"
)

func TestListRuns_OrderedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-b", "run-a", "run-c"} {
		if err := s.BeginRun(ctx, id, testConfig); err != nil {
			t.Fatalf("BeginRun(%s) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Errorf("runs[%d] = %q, want %q", i, runs[i].ID, id)
		}
	}

	latest, err := s.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if latest.ID != "run-c" {
		t.Errorf("LatestRun() = %q, want run-c", latest.ID)
	}
}

func TestListRuns_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}

	if _, err := s.LatestRun(context.Background()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestReadEvents_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadEvents(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if events == nil {
		t.Error("ReadEvents() returned nil, want empty slice")
	}
}

func TestReadEvents_IsolatedPerRun(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-1")
	writeTestRun(t, s, "run-2")

	events, err := s.ReadEvents(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != len(testLog) {
		t.Errorf("got %d events for run-2, want %d", len(events), len(testLog))
	}
}

func TestReadMolecule(t *testing.T) {
	s := createTestStore(t)
	writeTestRun(t, s, "run-1")

	events, err := s.ReadMolecule(context.Background(), "run-1", 1)
	if err != nil {
		t.Fatalf("ReadMolecule() failed: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("got %d molecule lines, want 6", len(events))
	}
	for i, ev := range events {
		if !ev.Kind.HasMolecule() || ev.Molecule != 1 {
			t.Errorf("event %d = %+v, want a line of molecule 1", i, ev)
		}
		if i > 0 && ev.Seq <= events[i-1].Seq {
			t.Errorf("events not in seq order at %d", i)
		}
	}
	if events[0].Kind != ir.KindCreating || events[5].Kind != ir.KindCreated {
		t.Errorf("molecule block = %v .. %v, want creating .. created", events[0].Kind, events[5].Kind)
	}
}

func TestEventSink_PersistsWrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.BeginRun(ctx, "run-1", testConfig); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}

	sink := s.NewEventSink(ctx, "run-1")
	for _, ev := range testLog[:3] {
		if err := sink.Write(ev); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
		if err := sink.Flush(); err != nil {
			t.Fatalf("Flush() failed: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	events, err := s.ReadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("got %d events, want 3", len(events))
	}
	if _, err := s.ReadRun(ctx, "run-1"); err != nil {
		t.Errorf("store unusable after sink Close: %v", err)
	}
}
