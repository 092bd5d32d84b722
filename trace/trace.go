// Package trace implements the simulator surface's optional
// trace_capture() extension point (spec §6): per-tick net/register/
// port snapshots persisted to a sink for offline waveform inspection.
// The core only produces snapshots and writes them through a Sink; it
// never reads them back — that is a debug-UI/VCD-writer collaborator's
// job (spec §6's "contract, not implementation" boundary).
package trace

import (
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	_ "github.com/mattn/go-sqlite3"
)

// Sink receives one snapshot per captured tick. Implementations must
// be safe to call once per Step from a single goroutine; the core
// never calls a Sink concurrently with itself.
type Sink interface {
	Capture(tick uint64, values map[string]uint64) error
	Close() error
}

// SQLiteSink persists every captured tick as rows in a local SQLite
// file, an optional extension point spec §6 explicitly allows
// ("Back-ends may cache compiled IR on disk under a path of their
// choice; the core does not mandate a layout" generalizes to trace
// data the same way).
type SQLiteSink struct {
	db     *sql.DB
	insert *sql.Stmt
	runID  string
}

// NewSQLiteSink opens (creating if needed) a SQLite database at path
// and prepares its trace table. Every row carries a fresh run ID (via
// rs/xid) so traces from repeated runs against the same file never
// collide.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS trace (
		run_id TEXT NOT NULL,
		tick   INTEGER NOT NULL,
		net    TEXT NOT NULL,
		value  INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO trace (run_id, tick, net, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: prepare insert: %w", err)
	}

	return &SQLiteSink{db: db, insert: stmt, runID: xid.New().String()}, nil
}

// RunID returns the identifier this sink tags every row with.
func (s *SQLiteSink) RunID() string { return s.runID }

// Capture persists one snapshot, one row per net.
func (s *SQLiteSink) Capture(tick uint64, values map[string]uint64) error {
	for net, v := range values {
		if _, err := s.insert.Exec(s.runID, tick, net, v); err != nil {
			return fmt.Errorf("trace: insert at tick %d, net %q: %w", tick, net, err)
		}
	}
	return nil
}

// Close releases the prepared statement and the database handle.
func (s *SQLiteSink) Close() error {
	s.insert.Close()
	return s.db.Close()
}

// MemorySink accumulates every captured snapshot in process memory, a
// dependency-free Sink used by tests and by callers who want to
// inspect a trace without standing up a SQLite file.
type MemorySink struct {
	Ticks []uint64
	Rows  []map[string]uint64
}

// Capture appends values (and its tick) to the in-memory trace.
func (s *MemorySink) Capture(tick uint64, values map[string]uint64) error {
	s.Ticks = append(s.Ticks, tick)
	s.Rows = append(s.Rows, values)
	return nil
}

// Close is a no-op; MemorySink owns no external resource.
func (s *MemorySink) Close() error { return nil }
