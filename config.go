package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds application configuration
type Config struct {
	LogLevel  string // debug, info, warn, error
	LogPretty bool
	LogFile   string // log destination while the TUI owns the terminal
	Shots     int
	Seed      uint64
	Workers   int
	OutputDir string // where saved QASM files go
}

// LoadConfig reads configuration from the environment, after loading a
// .env file when one exists.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("QSUBSUM_LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("QSUBSUM_LOG_PRETTY", true),
		LogFile:   getEnv("QSUBSUM_LOG_FILE", "qsubsum.log"),
		Shots:     getEnvAsInt("QSUBSUM_SHOTS", 1024),
		Seed:      uint64(getEnvAsInt("QSUBSUM_SEED", 1)),
		Workers:   getEnvAsInt("QSUBSUM_WORKERS", 4),
		OutputDir: getEnv("QSUBSUM_OUTPUT_DIR", "."),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Shots <= 0 {
		return errors.Errorf("shots must be positive, got %d", c.Shots)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
