package store

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// Row maps declared column names to the scalar values submitted for one key.
type Row map[string]float64

// Rows maps a natural key (a calendar date) to the columns submitted for it.
type Rows map[string]Row

// Record is one flat record from the pull pipeline; values keep whatever
// scalar type the vendor payload carried.
type Record map[string]interface{}

// Store persists aggregated rows with idempotent replace-on-conflict
// semantics. It owns the transaction boundary for every write: all rows of
// one call are committed together or not at all.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertRows writes one row per key into the table. The column list of each
// statement is the key plus the columns present in that row, sorted; on
// conflict only the submitted columns are overwritten, so columns absent
// from this call keep their previously stored values.
//
// If required is non-empty the table is in strict mode: rows missing any
// required column are logged and skipped, never partially written. The
// returned count is the number of rows actually written.
func (s *Store) UpsertRows(table Table, required []string, rows Rows) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for table %s: %w", table.Name, err)
	}
	defer tx.Rollback()

	written := 0
	for _, key := range sortedKeys(rows) {
		row := rows[key]
		if missing := missingColumns(row, required); len(missing) > 0 {
			log.Printf("Skipping incomplete row %s=%q for table %s: missing columns %v", table.KeyColumn, key, table.Name, missing)
			continue
		}
		if len(row) == 0 {
			log.Printf("Skipping empty row %s=%q for table %s", table.KeyColumn, key, table.Name)
			continue
		}

		query, args, err := buildRowUpsert(table, key, row)
		if err != nil {
			return written, err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return written, fmt.Errorf("failed to upsert row %s=%q into table %s: %w", table.KeyColumn, key, table.Name, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit upsert transaction for table %s: %w", table.Name, err)
	}
	return written, nil
}

// UpsertBatch writes uniform flat records in one bulk statement. Every
// record must expose exactly the key set of the first record; on conflict
// every non-key column is overwritten with the incoming value.
func (s *Store) UpsertBatch(table Table, records []Record) error {
	if len(records) == 0 {
		log.Printf("No records to upsert into table %s", table.Name)
		return nil
	}

	query, args, err := buildBatchUpsert(table, records)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for table %s: %w", table.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to upsert %d records into table %s: %w", len(records), table.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch transaction for table %s: %w", table.Name, err)
	}
	return nil
}

// buildRowUpsert assembles the statement for a single dynamic row. Column
// order is the key column followed by the present columns sorted, and the
// SET clause names only the submitted columns.
func buildRowUpsert(table Table, key string, row Row) (string, []interface{}, error) {
	cols := sortedKeys(row)
	for _, col := range cols {
		if !table.HasColumn(col) {
			return "", nil, &UndeclaredColumnError{Table: table.Name, Column: col}
		}
	}

	placeholders := make([]string, 0, len(cols)+1)
	args := make([]interface{}, 0, len(cols)+1)
	args = append(args, key)
	placeholders = append(placeholders, "$1")
	for i, col := range cols {
		args = append(args, row[col])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
	}

	setClauses := make([]string, 0, len(cols))
	for _, col := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table.Name,
		strings.Join(append([]string{table.KeyColumn}, cols...), ", "),
		strings.Join(placeholders, ", "),
		table.KeyColumn,
		strings.Join(setClauses, ", "),
	)
	return query, args, nil
}

// buildBatchUpsert assembles one multi-VALUES statement for uniform records.
// The first record's key set is the contract for the batch.
func buildBatchUpsert(table Table, records []Record) (string, []interface{}, error) {
	contract := sortedKeys(records[0])
	if _, ok := records[0][table.KeyColumn]; !ok {
		return "", nil, fmt.Errorf("batch records for table %s are missing key column %s", table.Name, table.KeyColumn)
	}

	nonKey := make([]string, 0, len(contract)-1)
	for _, col := range contract {
		if col == table.KeyColumn {
			continue
		}
		if !table.HasColumn(col) {
			return "", nil, &UndeclaredColumnError{Table: table.Name, Column: col}
		}
		nonKey = append(nonKey, col)
	}

	for i, rec := range records[1:] {
		got := sortedKeys(rec)
		if !equalStrings(contract, got) {
			return "", nil, &SchemaMismatchError{Table: table.Name, RecordIndex: i + 1, Want: contract, Got: got}
		}
	}

	columns := append([]string{table.KeyColumn}, nonKey...)
	args := make([]interface{}, 0, len(records)*len(columns))
	valueGroups := make([]string, 0, len(records))
	param := 1
	for _, rec := range records {
		placeholders := make([]string, 0, len(columns))
		for _, col := range columns {
			args = append(args, rec[col])
			placeholders = append(placeholders, fmt.Sprintf("$%d", param))
			param++
		}
		valueGroups = append(valueGroups, "("+strings.Join(placeholders, ", ")+")")
	}

	var conflict string
	if len(nonKey) == 0 {
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", table.KeyColumn)
	} else {
		setClauses := make([]string, 0, len(nonKey))
		for _, col := range nonKey {
			setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		conflict = fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", table.KeyColumn, strings.Join(setClauses, ", "))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s %s",
		table.Name,
		strings.Join(columns, ", "),
		strings.Join(valueGroups, ", "),
		conflict,
	)
	return query, args, nil
}

func missingColumns(row Row, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
