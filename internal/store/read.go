package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/ir"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored run. Summary is nil until the run finished.
type Run struct {
	ID            string        `json:"id"`
	Config        config.Config `json:"config"`
	Status        Status        `json:"status"`
	Summary       *ir.Summary   `json:"summary,omitempty"`
	SummaryDigest string        `json:"summary_digest,omitempty"`
	LogDigest     string        `json:"log_digest,omitempty"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

const runColumns = `id, oxygen, hydrogen, wait_ms, bond_ms, status, summary, summary_digest, log_digest, error, duration_ns`

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run. Returns ErrRunNotFound if it does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	return run, err
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	return run, err
}

// ReadEvents returns the log of a run in seq order. Returns an empty
// slice (not nil) when the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT seq, species, atom, kind, molecule
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// ReadMolecule returns the creating and created lines of one molecule.
func (s *Store) ReadMolecule(ctx context.Context, runID string, molecule int64) ([]ir.Event, error) {
	return s.queryEvents(ctx, `
		SELECT seq, species, atom, kind, molecule
		FROM events
		WHERE run_id = ? AND molecule = ?
		ORDER BY seq ASC
	`, runID, molecule)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		var (
			ev       ir.Event
			species  string
			kind     string
			molecule sql.NullInt64
		)
		if err := rows.Scan(&ev.Seq, &species, &ev.Atom, &kind, &molecule); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Species = ir.Species(species)
		ev.Kind = ir.EventKind(kind)
		ev.Molecule = molecule.Int64
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                               Run
		status                            string
		summary, sumDigest, logDigest, ms sql.NullString
		duration                          sql.NullInt64
	)
	err := row.Scan(
		&run.ID,
		&run.Config.Oxygen,
		&run.Config.Hydrogen,
		&run.Config.WaitMS,
		&run.Config.BondMS,
		&status,
		&summary,
		&sumDigest,
		&logDigest,
		&ms,
		&duration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Status = Status(status)
	run.SummaryDigest = sumDigest.String
	run.LogDigest = logDigest.String
	run.Error = ms.String
	run.Duration = time.Duration(duration.Int64)

	if summary.Valid {
		var s ir.Summary
		if err := json.Unmarshal([]byte(summary.String), &s); err != nil {
			return Run{}, fmt.Errorf("unmarshal summary of run %s: %w", run.ID, err)
		}
		run.Summary = &s
	}
	return run, nil
}
