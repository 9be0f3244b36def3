package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// csvStore serves record operations from one CSV file per table. The first
// line is the field-name header; every mutation rewrites the whole file.
// A table with zero records is never written, so "no file" and "empty
// table" are indistinguishable on disk.
type csvStore struct {
	dir string
}

func newCSVStore(dir string) *csvStore {
	return &csvStore{dir: dir}
}

func (c *csvStore) path(table string) string {
	return filepath.Join(c.dir, table+".csv")
}

// readTable loads the full table file. A missing file is an empty table,
// not an error.
func (c *csvStore) readTable(table string) ([]map[string]any, error) {
	f, err := os.Open(c.path(table))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	reader.FieldsPerRecord = len(header)

	var records []map[string]any
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed table file: %w", err)
		}
		record := make(map[string]any, len(header))
		for i, field := range header {
			record[field] = row[i]
		}
		records = append(records, record)
	}
	return records, nil
}

// writeTable rewrites the table file from the full record set. The header
// is derived from the first record's fields; later records may omit fields
// (written empty) but must not introduce new ones.
func (c *csvStore) writeTable(table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}

	fields := fieldOrder(records[0])
	known := make(map[string]bool, len(fields))
	for _, field := range fields {
		known[field] = true
	}
	for _, record := range records {
		for k := range record {
			if !known[k] {
				return fmt.Errorf("field %q is not in the table header", k)
			}
		}
	}

	f, err := os.Create(c.path(table))
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	defer func() { _ = f.Close() }()

	writer := csv.NewWriter(f)
	if err := writer.Write(fields); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, record := range records {
		row := make([]string, len(fields))
		for i, field := range fields {
			if v, ok := record[field]; ok {
				row[i] = fmt.Sprint(v)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// fieldOrder fixes a deterministic column order: id first, the rest sorted.
func fieldOrder(record map[string]any) []string {
	fields := make([]string, 0, len(record))
	for field := range record {
		if field != "id" {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	if _, ok := record["id"]; ok {
		fields = append([]string{"id"}, fields...)
	}
	return fields
}

// matches reports whether a record satisfies every filter field by
// stringified equality.
func matches(record, filters map[string]any) bool {
	for field, want := range filters {
		got, ok := record[field]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (c *csvStore) selectRecords(table string, filters map[string]any) ([]map[string]any, error) {
	records, err := c.readTable(table)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return records, nil
	}

	var filtered []map[string]any
	for _, record := range records {
		if matches(record, filters) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

// nextID computes the synthetic key for a new record: the max existing id
// interpreted as an integer, plus one, as a string. A record without an id
// counts as zero; a non-numeric id is an error.
func nextID(records []map[string]any) (string, error) {
	maxID := 0
	for _, record := range records {
		v, ok := record["id"]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
		if err != nil {
			return "", fmt.Errorf("non-numeric id %q in table", v)
		}
		if n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1), nil
}

func (c *csvStore) insert(table string, record map[string]any) error {
	records, err := c.readTable(table)
	if err != nil {
		return err
	}

	// Copy so id assignment does not leak into the caller's map.
	inserted := make(map[string]any, len(record)+1)
	for k, v := range record {
		inserted[k] = v
	}
	if _, ok := inserted["id"]; !ok {
		id, err := nextID(records)
		if err != nil {
			return err
		}
		inserted["id"] = id
	}

	return c.writeTable(table, append(records, inserted))
}

func (c *csvStore) update(table string, id int, fields map[string]any) error {
	records, err := c.readTable(table)
	if err != nil {
		return err
	}

	key := strconv.Itoa(id)
	for _, record := range records {
		if fmt.Sprint(record["id"]) == key {
			for k, v := range fields {
				record[k] = v
			}
			// At most one record is updated, even with duplicate ids.
			break
		}
	}
	// No match is not an error: the rewrite below is then a no-op.
	return c.writeTable(table, records)
}

func (c *csvStore) delete(table string, id int) error {
	records, err := c.readTable(table)
	if err != nil {
		return err
	}

	key := strconv.Itoa(id)
	kept := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if fmt.Sprint(record["id"]) != key {
			kept = append(kept, record)
		}
	}
	return c.writeTable(table, kept)
}
