// Package datastore writes record-store tables into a local SQLite database
// for reporting and ad-hoc querying.
package datastore

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteExport dumps schema-less record tables into a SQLite file. Since the
// record store has no compiled knowledge of table columns, each table's
// schema is derived from the records themselves, with every column as TEXT.
type SQLiteExport struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteExport creates a new SQLiteExport instance.
func NewSQLiteExport(dbPath string) *SQLiteExport {
	return &SQLiteExport{
		dbPath: dbPath,
	}
}

// Connect opens a connection to the SQLite database.
func (s *SQLiteExport) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

// columns collects the union of field names across all records, id first
// and the rest sorted, so the exported schema is stable.
func columns(records []map[string]any) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for field := range record {
			seen[field] = true
		}
	}

	var cols []string
	for field := range seen {
		if field != "id" {
			cols = append(cols, field)
		}
	}
	sort.Strings(cols)
	if seen["id"] {
		cols = append([]string{"id"}, cols...)
	}
	return cols
}

// ExportTable replaces the named table with the given records. Empty
// tables are skipped: with no records there is no schema to derive.
func (s *SQLiteExport) ExportTable(table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}

	cols := columns(records)
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = fmt.Sprintf("%q TEXT", col)
	}

	if _, err := s.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %q", table)); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	schema := fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(quoted, ", "))
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Insert all records in one transaction
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, col := range cols {
		placeholders[i] = "?"
		names[i] = fmt.Sprintf("%q", col)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s)",
		table,
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		values := make([]any, len(cols))
		for i, col := range cols {
			if v, ok := record[col]; ok {
				values[i] = fmt.Sprint(v)
			}
		}
		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteExport) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
