package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all externally supplied settings. Every field has a local
// development default so the services start without any environment set up.
type Config struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ServerPort string

	OuraToken   string
	OuraBaseURL string
}

// Load reads configuration from the environment, after loading a .env file
// if one is present. A missing .env file is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment and defaults")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "postgres"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8000"),

		OuraToken:   getEnv("OURA_TOKEN", ""),
		OuraBaseURL: getEnv("OURA_BASE_URL", "https://api.ouraring.com"),
	}
}

// getEnv reads an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
