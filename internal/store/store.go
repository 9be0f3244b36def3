// Package store implements the dual-mode record store backing the ColmaGo
// application. At construction it probes the Supabase backend and settles on
// one of two modes for the process lifetime: remote (all operations delegated
// to Supabase) or local CSV (one file per table under a backup directory).
// There is no per-call fallback and no automatic reconnection.
//
// Public operations never return errors: failures are logged and converted
// to a neutral result (empty slice for reads, false for writes) so UI code
// can treat "no rows" and "read failed" uniformly.
//
// The CSV mode performs a full read-modify-rewrite of the table file on
// every mutation with no file locking. A single writer per backup directory
// is assumed; concurrent processes can clobber each other's writes.
package store

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/colmago/colmago/internal/config"
)

// Record is one row-equivalent: a schema-agnostic mapping from field name
// to value. CSV mode stores every value as a string.
type Record map[string]any

// Mode identifies which backend serves the store's operations.
type Mode int

const (
	// ModeDisconnected is the implicit state of a zero-value store;
	// New always leaves the store in one of the other two modes.
	ModeDisconnected Mode = iota
	// ModeRemote delegates all operations to the Supabase backend.
	ModeRemote
	// ModeCSV serves all operations from per-table CSV files.
	ModeCSV
)

// Connection status strings as displayed by the UI.
const (
	StatusRemote       = "Supabase"
	StatusCSV          = "CSV Local"
	StatusDisconnected = "Desconectado"
)

var errDisconnected = errors.New("store is not connected")

// Remote is the contract the remote backend must satisfy. It is treated as
// an opaque black box: each call either succeeds or returns an error the
// store handles generically.
type Remote interface {
	Select(ctx context.Context, table string, filters map[string]any, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, record map[string]any) error
	Update(ctx context.Context, table string, id int, record map[string]any) error
	Delete(ctx context.Context, table string, id int) error
}

// Options configures store construction.
type Options struct {
	// Remote is the backend client, nil when credentials are absent.
	Remote Remote
	// ProbeTable is the table used for the connection validation read.
	// Defaults to the clientes table.
	ProbeTable string
	// BackupDir is the directory for per-table CSV files in local mode.
	// Defaults to the configured backup directory.
	BackupDir string
}

// Store routes record operations to the mode chosen at construction.
type Store struct {
	mode   Mode
	remote Remote
	csv    *csvStore
}

// New constructs a store, deciding the operating mode once. A reachable
// backend (validated by a one-record read against the probe table) selects
// remote mode; missing credentials or a failed probe select CSV mode.
// Construction always succeeds.
func New(ctx context.Context, opts Options) *Store {
	probe := opts.ProbeTable
	if probe == "" {
		probe = config.TablaClientes
	}
	dir := opts.BackupDir
	if dir == "" {
		dir = config.BackupDir
	}
	if dir == "" {
		dir = "data_backup"
	}

	if opts.Remote == nil {
		slog.Warn("Supabase credentials not configured, using local CSV backup")
	} else if _, err := opts.Remote.Select(ctx, probe, nil, 1); err != nil {
		slog.Warn("Supabase connection failed, falling back to local CSV backup", "error", err)
	} else {
		slog.Info("Connected to Supabase")
		return &Store{mode: ModeRemote, remote: opts.Remote}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		// Operations will fail and be reported as neutral results.
		slog.Error("Failed to create CSV backup directory", "dir", dir, "error", err)
	}
	return &Store{mode: ModeCSV, csv: newCSVStore(dir)}
}

// Mode returns the operating mode chosen at construction.
func (s *Store) Mode() Mode {
	return s.mode
}

// ConnectionStatus reports the mode as a UI-facing status string.
func (s *Store) ConnectionStatus() string {
	switch s.mode {
	case ModeRemote:
		return StatusRemote
	case ModeCSV:
		return StatusCSV
	default:
		return StatusDisconnected
	}
}

// Select returns the records of a table matching every filter field exactly.
// A nil or empty filter map returns all records. Failures yield an empty
// result.
func (s *Store) Select(ctx context.Context, table string, filters map[string]any) []Record {
	var (
		rows []map[string]any
		err  error
	)
	switch s.mode {
	case ModeRemote:
		rows, err = s.remote.Select(ctx, table, filters, 0)
	case ModeCSV:
		rows, err = s.csv.selectRecords(table, filters)
	default:
		err = errDisconnected
	}
	if err != nil {
		slog.Error("Select failed", "table", table, "error", err)
		return nil
	}

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, Record(r))
	}
	return records
}

// Insert adds a record to a table. In CSV mode a missing id is assigned as
// max-plus-one over the existing records; in remote mode key assignment is
// delegated to the backend.
func (s *Store) Insert(ctx context.Context, table string, record Record) bool {
	var err error
	switch s.mode {
	case ModeRemote:
		err = s.remote.Insert(ctx, table, record)
	case ModeCSV:
		err = s.csv.insert(table, record)
	default:
		err = errDisconnected
	}
	if err != nil {
		slog.Error("Insert failed", "table", table, "error", err)
		return false
	}
	return true
}

// Update merges the given fields into the first record whose id matches;
// unlisted fields are preserved. Updating a nonexistent id is reported as
// success with no state change.
func (s *Store) Update(ctx context.Context, table string, id int, record Record) bool {
	var err error
	switch s.mode {
	case ModeRemote:
		err = s.remote.Update(ctx, table, id, record)
	case ModeCSV:
		err = s.csv.update(table, id, record)
	default:
		err = errDisconnected
	}
	if err != nil {
		slog.Error("Update failed", "table", table, "id", id, "error", err)
		return false
	}
	return true
}

// Delete removes all records whose id matches. Deleting a nonexistent id
// is a no-op success.
func (s *Store) Delete(ctx context.Context, table string, id int) bool {
	var err error
	switch s.mode {
	case ModeRemote:
		err = s.remote.Delete(ctx, table, id)
	case ModeCSV:
		err = s.csv.delete(table, id)
	default:
		err = errDisconnected
	}
	if err != nil {
		slog.Error("Delete failed", "table", table, "id", id, "error", err)
		return false
	}
	return true
}
