package store

import (
	"fmt"
	"sort"
)

// SchemaMismatchError reports a batch whose records do not all share the
// same key set. The first record's keys are taken as the contract for the
// whole batch.
type SchemaMismatchError struct {
	Table       string
	RecordIndex int
	Want        []string
	Got         []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in batch for table %s: record #%d has columns %v, expected %v",
		e.Table, e.RecordIndex+1, e.Got, e.Want)
}

// UndeclaredColumnError reports an attempt to write a column that is not
// part of the table's declared column set. Incoming names are validated
// against the declaration rather than interpolated into SQL.
type UndeclaredColumnError struct {
	Table  string
	Column string
}

func (e *UndeclaredColumnError) Error() string {
	return fmt.Sprintf("column %q is not declared for table %s", e.Column, e.Table)
}

// sortedKeys returns the map's keys in ascending order, for deterministic
// statement generation and stable error messages.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
