package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/h2o/internal/config"
	"github.com/roach88/h2o/internal/ir"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testConfig = config.Config{Oxygen: 1, Hydrogen: 3, WaitMS: 0, BondMS: 0}

// testLog is a complete run of O=1 H=3.
var testLog = []ir.Event{
	{Seq: 1, Species: ir.Oxygen, Atom: 1, Kind: ir.KindStarted},
	{Seq: 2, Species: ir.Hydrogen, Atom: 1, Kind: ir.KindStarted},
	{Seq: 3, Species: ir.Hydrogen, Atom: 2, Kind: ir.KindStarted},
	{Seq: 4, Species: ir.Hydrogen, Atom: 3, Kind: ir.KindStarted},
	{Seq: 5, Species: ir.Oxygen, Atom: 1, Kind: ir.KindQueued},
	{Seq: 6, Species: ir.Hydrogen, Atom: 1, Kind: ir.KindQueued},
	{Seq: 7, Species: ir.Hydrogen, Atom: 3, Kind: ir.KindQueued},
	{Seq: 8, Species: ir.Hydrogen, Atom: 2, Kind: ir.KindQueued},
	{Seq: 9, Species: ir.Oxygen, Atom: 1, Kind: ir.KindCreating, Molecule: 1},
	{Seq: 10, Species: ir.Hydrogen, Atom: 1, Kind: ir.KindCreating, Molecule: 1},
	{Seq: 11, Species: ir.Hydrogen, Atom: 3, Kind: ir.KindCreating, Molecule: 1},
	{Seq: 12, Species: ir.Oxygen, Atom: 1, Kind: ir.KindCreated, Molecule: 1},
	{Seq: 13, Species: ir.Hydrogen, Atom: 1, Kind: ir.KindCreated, Molecule: 1},
	{Seq: 14, Species: ir.Hydrogen, Atom: 3, Kind: ir.KindCreated, Molecule: 1},
	{Seq: 15, Species: ir.Hydrogen, Atom: 2, Kind: ir.KindUnpaired},
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"runs", "events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.expected); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_molecule'",
	).Scan(&name)
	if err != nil {
		t.Errorf("molecule index missing: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err == nil {
		t.Fatal("Open() should fail for a path in a missing directory")
	}
}
