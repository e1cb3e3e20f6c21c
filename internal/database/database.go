package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mischavandenburg/health-api/internal/config"
)

// Connect opens a PostgreSQL connection from the supplied configuration and
// verifies it with a ping.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	log.Printf("Connecting to PostgreSQL database %s:%s/%s as user %s", cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%s/%s: %w", cfg.DBHost, cfg.DBPort, cfg.DBName, err)
	}
	log.Println("Database connection established")
	return db, nil
}

// InitSchema creates the target tables if they do not exist yet. It runs
// once during startup orchestration and is idempotent; it is never invoked
// from request handling.
func InitSchema(db *sql.DB) error {
	schemaStatements := []string{
		`CREATE TABLE IF NOT EXISTS diet (
            date DATE PRIMARY KEY,
            dietary_energy DOUBLE PRECISION
        );`,
		`CREATE TABLE IF NOT EXISTS body_composition (
            date DATE PRIMARY KEY,
            lean_body_mass DOUBLE PRECISION,
            body_mass_index DOUBLE PRECISION,
            weight_body_mass DOUBLE PRECISION,
            body_fat_percentage DOUBLE PRECISION
        );`,
		`CREATE TABLE IF NOT EXISTS sleep_data (
            id TEXT PRIMARY KEY,
            day DATE,
            type TEXT,
            bedtime_start TIMESTAMPTZ,
            bedtime_end TIMESTAMPTZ,
            average_breath DOUBLE PRECISION,
            average_heart_rate DOUBLE PRECISION,
            average_hrv DOUBLE PRECISION,
            awake_time INTEGER,
            deep_sleep_duration INTEGER,
            efficiency INTEGER,
            latency INTEGER,
            light_sleep_duration INTEGER,
            lowest_heart_rate DOUBLE PRECISION,
            rem_sleep_duration INTEGER,
            restless_periods INTEGER,
            time_in_bed INTEGER,
            total_sleep_duration INTEGER
        );`,
		`CREATE TABLE IF NOT EXISTS heart_rate (
            timestamp TIMESTAMPTZ PRIMARY KEY,
            bpm DOUBLE PRECISION,
            source TEXT
        );`,
	}
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement #%d: %w", i+1, err)
		}
	}
	log.Println("Database schema initialized")
	return nil
}
