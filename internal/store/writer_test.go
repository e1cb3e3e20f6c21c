package store

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRowUpsert(t *testing.T) {
	t.Run("Column List Is Key Plus Sorted Present Columns", func(t *testing.T) {
		row := Row{"weight_body_mass": 70, "body_fat_percentage": 18, "lean_body_mass": 60}
		query, args, err := buildRowUpsert(BodyComposition, "2024-08-18", row)
		require.NoError(t, err)

		assert.Equal(t,
			"INSERT INTO body_composition (date, body_fat_percentage, lean_body_mass, weight_body_mass) "+
				"VALUES ($1, $2, $3, $4) "+
				"ON CONFLICT (date) DO UPDATE SET "+
				"body_fat_percentage = EXCLUDED.body_fat_percentage, "+
				"lean_body_mass = EXCLUDED.lean_body_mass, "+
				"weight_body_mass = EXCLUDED.weight_body_mass",
			query)
		assert.Equal(t, []interface{}{"2024-08-18", 18.0, 60.0, 70.0}, args)
	})

	t.Run("Set Clause Names Only Submitted Columns", func(t *testing.T) {
		// A partial submission must not touch the other declared columns,
		// so a later request can fill them in without nulling these.
		query, _, err := buildRowUpsert(BodyComposition, "2024-08-18", Row{"weight_body_mass": 70})
		require.NoError(t, err)
		assert.Contains(t, query, "DO UPDATE SET weight_body_mass = EXCLUDED.weight_body_mass")
		assert.NotContains(t, query, "lean_body_mass")
		assert.NotContains(t, query, "body_mass_index")
		assert.NotContains(t, query, "body_fat_percentage")
	})

	t.Run("Undeclared Column Is Rejected", func(t *testing.T) {
		_, _, err := buildRowUpsert(Diet, "2024-08-18", Row{"step_count; DROP TABLE diet": 1})
		require.Error(t, err)
		var undeclared *UndeclaredColumnError
		require.ErrorAs(t, err, &undeclared)
		assert.Equal(t, "diet", undeclared.Table)
	})
}

func TestBuildBatchUpsert(t *testing.T) {
	t.Run("Uniform Records Build One Multi-Values Statement", func(t *testing.T) {
		records := []Record{
			{"timestamp": "2024-08-18T08:00:00+00:00", "bpm": 52.0, "source": "ring"},
			{"timestamp": "2024-08-18T08:05:00+00:00", "bpm": 54.0, "source": "ring"},
		}
		query, args, err := buildBatchUpsert(HeartRate, records)
		require.NoError(t, err)

		assert.Equal(t,
			"INSERT INTO heart_rate (timestamp, bpm, source) "+
				"VALUES ($1, $2, $3), ($4, $5, $6) "+
				"ON CONFLICT (timestamp) DO UPDATE SET "+
				"bpm = EXCLUDED.bpm, source = EXCLUDED.source",
			query)
		require.Len(t, args, 6)
		assert.Equal(t, "2024-08-18T08:00:00+00:00", args[0])
		assert.Equal(t, 54.0, args[4])
	})

	t.Run("Record With Missing Key Fails With SchemaMismatchError", func(t *testing.T) {
		records := []Record{
			{"timestamp": "t1", "bpm": 52.0, "source": "ring"},
			{"timestamp": "t2", "bpm": 54.0},
		}
		_, _, err := buildBatchUpsert(HeartRate, records)
		require.Error(t, err)
		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "heart_rate", mismatch.Table)
		assert.Equal(t, 1, mismatch.RecordIndex)
		assert.Equal(t, []string{"bpm", "source", "timestamp"}, mismatch.Want)
		assert.Equal(t, []string{"bpm", "timestamp"}, mismatch.Got)
	})

	t.Run("Record With Extra Key Fails With SchemaMismatchError", func(t *testing.T) {
		records := []Record{
			{"timestamp": "t1", "bpm": 52.0, "source": "ring"},
			{"timestamp": "t2", "bpm": 54.0, "source": "ring", "bpm_max": 80.0},
		}
		_, _, err := buildBatchUpsert(HeartRate, records)
		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("Missing Key Column Fails", func(t *testing.T) {
		_, _, err := buildBatchUpsert(HeartRate, []Record{{"bpm": 52.0, "source": "ring"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing key column timestamp")
	})

	t.Run("Undeclared Column Is Rejected", func(t *testing.T) {
		_, _, err := buildBatchUpsert(HeartRate, []Record{{"timestamp": "t1", "pulse": 52.0}})
		var undeclared *UndeclaredColumnError
		require.ErrorAs(t, err, &undeclared)
		assert.Equal(t, "pulse", undeclared.Column)
	})

	t.Run("Key-Only Records Use Do Nothing", func(t *testing.T) {
		query, args, err := buildBatchUpsert(HeartRate, []Record{{"timestamp": "t1"}})
		require.NoError(t, err)
		assert.Equal(t, "INSERT INTO heart_rate (timestamp) VALUES ($1) ON CONFLICT (timestamp) DO NOTHING", query)
		assert.Equal(t, []interface{}{"t1"}, args)
	})
}

func TestUpsertRows(t *testing.T) {
	dietUpsert := regexp.QuoteMeta(
		"INSERT INTO diet (date, dietary_energy) VALUES ($1, $2) " +
			"ON CONFLICT (date) DO UPDATE SET dietary_energy = EXCLUDED.dietary_energy")

	t.Run("Commits All Rows In One Transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(dietUpsert).
			WithArgs("2024-08-18", 100.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(dietUpsert).
			WithArgs("2024-08-19", 120.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		written, err := New(db).UpsertRows(Diet, nil, Rows{
			"2024-08-18": {"dietary_energy": 100},
			"2024-08-19": {"dietary_energy": 120},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, written)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back When A Row Fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(dietUpsert).
			WithArgs("2024-08-18", 100.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(dietUpsert).
			WithArgs("2024-08-19", 120.0).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err = New(db).UpsertRows(Diet, nil, Rows{
			"2024-08-18": {"dietary_energy": 100},
			"2024-08-19": {"dietary_energy": 120},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2024-08-19")
		assert.NoError(t, mock.ExpectationsWereMet(), "the earlier row must never be committed")
	})

	t.Run("Strict Mode Executes Only Complete Rows", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		required := []string{"lean_body_mass", "body_mass_index", "weight_body_mass", "body_fat_percentage"}
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO body_composition (date, body_fat_percentage, body_mass_index, lean_body_mass, weight_body_mass)")).
			WithArgs("2024-08-19", 18.0, 22.0, 60.0, 70.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		written, err := New(db).UpsertRows(BodyComposition, required, Rows{
			"2024-08-18": {"lean_body_mass": 60},
			"2024-08-19": {"lean_body_mass": 60, "body_mass_index": 22, "weight_body_mass": 70, "body_fat_percentage": 18},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, written, "the incomplete row is skipped, not written")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertBatch(t *testing.T) {
	heartRateUpsert := regexp.QuoteMeta(
		"INSERT INTO heart_rate (timestamp, bpm, source) VALUES ($1, $2, $3), ($4, $5, $6) " +
			"ON CONFLICT (timestamp) DO UPDATE SET bpm = EXCLUDED.bpm, source = EXCLUDED.source")

	records := []Record{
		{"timestamp": "2024-08-18T08:00:00+00:00", "bpm": 52.0, "source": "ring"},
		{"timestamp": "2024-08-18T08:05:00+00:00", "bpm": 54.0, "source": "ring"},
	}

	t.Run("Commits The Bulk Statement", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(heartRateUpsert).
			WithArgs("2024-08-18T08:00:00+00:00", 52.0, "ring", "2024-08-18T08:05:00+00:00", 54.0, "ring").
			WillReturnResult(sqlmock.NewResult(2, 2))
		mock.ExpectCommit()

		require.NoError(t, New(db).UpsertBatch(HeartRate, records))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls Back When The Bulk Statement Fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(heartRateUpsert).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		err = New(db).UpsertBatch(HeartRate, records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "heart_rate")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Inconsistent Batch Never Touches The Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		bad := []Record{
			{"timestamp": "t1", "bpm": 52.0, "source": "ring"},
			{"timestamp": "t2", "bpm": 54.0},
		}
		err = New(db).UpsertBatch(HeartRate, bad)
		var mismatch *SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.NoError(t, mock.ExpectationsWereMet(), "no transaction may start for a mismatched batch")
	})

	t.Run("Empty Batch Never Touches The Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, New(db).UpsertBatch(HeartRate, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMissingColumns(t *testing.T) {
	row := Row{"lean_body_mass": 60, "weight_body_mass": 70}
	assert.Equal(t, []string{"body_mass_index", "body_fat_percentage"},
		missingColumns(row, []string{"lean_body_mass", "body_mass_index", "weight_body_mass", "body_fat_percentage"}))
	assert.Nil(t, missingColumns(row, nil))
}
