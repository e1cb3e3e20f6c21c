package store

// Table declares a target table: its name, the primary key column the
// upserts deduplicate on, and the closed set of non-key columns that may
// ever be written. Column identifiers used in SQL are always taken from
// these declarations, never from incoming payloads.
type Table struct {
	Name      string
	KeyColumn string
	Columns   []string
}

// HasColumn reports whether name is a declared non-key column of the table.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Diet holds one row per calendar date of dietary metrics.
var Diet = Table{
	Name:      "diet",
	KeyColumn: "date",
	Columns:   []string{"dietary_energy"},
}

// BodyComposition holds one row per calendar date of body metrics.
var BodyComposition = Table{
	Name:      "body_composition",
	KeyColumn: "date",
	Columns: []string{
		"lean_body_mass",
		"body_mass_index",
		"weight_body_mass",
		"body_fat_percentage",
	},
}

// SleepData holds one row per sleep session reported by the ring vendor.
var SleepData = Table{
	Name:      "sleep_data",
	KeyColumn: "id",
	Columns: []string{
		"day",
		"type",
		"bedtime_start",
		"bedtime_end",
		"average_breath",
		"average_heart_rate",
		"average_hrv",
		"awake_time",
		"deep_sleep_duration",
		"efficiency",
		"latency",
		"light_sleep_duration",
		"lowest_heart_rate",
		"rem_sleep_duration",
		"restless_periods",
		"time_in_bed",
		"total_sleep_duration",
	},
}

// HeartRate holds one row per heart-rate sample reported by the ring vendor.
var HeartRate = Table{
	Name:      "heart_rate",
	KeyColumn: "timestamp",
	Columns:   []string{"bpm", "source"},
}
