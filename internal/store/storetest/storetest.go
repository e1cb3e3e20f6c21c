// Package storetest provides an in-memory writer with the store's upsert
// semantics, so pipeline and handler tests can exercise the full write path
// without a database.
package storetest

import (
	"fmt"

	"github.com/mischavandenburg/health-api/internal/store"
)

// MemoryWriter implements the ingest pipelines' writer interface on plain
// maps. It mirrors the store's observable behavior: submitted columns
// overwrite, absent columns keep their stored values, strict-mode rows
// missing a required column are skipped, and non-uniform batches fail with
// a SchemaMismatchError before anything is stored.
type MemoryWriter struct {
	tables map[string]map[string]map[string]interface{}
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{tables: make(map[string]map[string]map[string]interface{})}
}

// Table returns the stored rows of one table, keyed by natural key then
// column name. The map is live; it is never copied.
func (m *MemoryWriter) Table(name string) map[string]map[string]interface{} {
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = make(map[string]map[string]interface{})
	}
	return m.tables[name]
}

func (m *MemoryWriter) UpsertRows(table store.Table, required []string, rows store.Rows) (int, error) {
	written := 0
	for key, row := range rows {
		complete := true
		for _, col := range required {
			if _, ok := row[col]; !ok {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		stored, ok := m.Table(table.Name)[key]
		if !ok {
			stored = make(map[string]interface{})
			m.Table(table.Name)[key] = stored
		}
		// Submitted columns overwrite, absent columns keep their values.
		for col, v := range row {
			stored[col] = v
		}
		written++
	}
	return written, nil
}

func (m *MemoryWriter) UpsertBatch(table store.Table, records []store.Record) error {
	if len(records) == 0 {
		return nil
	}
	contract := make(map[string]bool, len(records[0]))
	for k := range records[0] {
		contract[k] = true
	}
	for i, rec := range records {
		if len(rec) != len(contract) {
			return &store.SchemaMismatchError{Table: table.Name, RecordIndex: i}
		}
		for k := range rec {
			if !contract[k] {
				return &store.SchemaMismatchError{Table: table.Name, RecordIndex: i}
			}
		}
	}
	for _, rec := range records {
		key := fmt.Sprintf("%v", rec[table.KeyColumn])
		stored := make(map[string]interface{}, len(rec))
		for col, v := range rec {
			if col != table.KeyColumn {
				stored[col] = v
			}
		}
		// Batch mode overwrites every non-key column.
		m.Table(table.Name)[key] = stored
	}
	return nil
}
