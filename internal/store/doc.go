// Package store persists H2O runs and their event logs in SQLite.
//
// Two tables:
//   - runs: configuration, status and, once finished, the summary with
//     its digests
//   - events: every log line of a run, keyed by (run_id, seq)
//
// Event ordering always uses seq, never wall time, so reading a run back
// yields exactly the lines of its output file.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: events must belong to a run
package store
