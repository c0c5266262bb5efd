package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/ir"
)

// Status is the lifecycle state of a stored run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusFailed   Status = "failed"
)

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, id string, cfg config.Config) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, oxygen, hydrogen, wait_ms, bond_ms, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, cfg.Oxygen, cfg.Hydrogen, cfg.WaitMS, cfg.BondMS, string(StatusRunning))
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteEvent appends one log line to a run. Writing the same seq twice
// is ignored, so a retried write is harmless.
func (s *Store) WriteEvent(ctx context.Context, runID string, ev ir.Event) error {
	var molecule any
	if ev.Kind.HasMolecule() {
		molecule = ev.Molecule
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, seq, species, atom, kind, molecule)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, runID, ev.Seq, string(ev.Species), ev.Atom, string(ev.Kind), molecule)
	if err != nil {
		return fmt.Errorf("write event %d: %w", ev.Seq, err)
	}
	return nil
}

// FinishRun marks a run finished and stores its summary. The summary and
// log digests are computed here, the latter from the stored events.
func (s *Store) FinishRun(ctx context.Context, id string, summary ir.Summary, duration time.Duration) error {
	summaryJSON, err := ir.MarshalCanonical(summary)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	summaryDigest, err := ir.SummaryDigest(summary)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	events, err := s.ReadEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	logDigest, err := ir.LogDigest(events)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return s.updateRun(ctx, id, `
		UPDATE runs
		SET status = ?, summary = ?, summary_digest = ?, log_digest = ?, duration_ns = ?
		WHERE id = ?
	`, string(StatusFinished), string(summaryJSON), summaryDigest, logDigest, duration.Nanoseconds(), id)
}

// FailRun marks a run failed with the error that ended it.
func (s *Store) FailRun(ctx context.Context, id string, runErr error, duration time.Duration) error {
	msg := "unknown error"
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.updateRun(ctx, id, `
		UPDATE runs SET status = ?, error = ?, duration_ns = ? WHERE id = ?
	`, string(StatusFailed), msg, duration.Nanoseconds(), id)
}

func (s *Store) updateRun(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update run %s: %w", id, ErrRunNotFound)
	}
	return nil
}
