// Package config loads application configuration from the environment,
// with an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names.
const (
	MemoryBackend = "memory"
	SQLiteBackend = "sqlite"
)

type Config struct {
	// Storage
	StorageBackend string
	SQLiteDBPath   string
	SeedFile       string

	// Ledger
	ArchiveCapacity int

	// Persistence loop
	SaveInterval   time.Duration
	ExpiryInterval time.Duration
}

// Load reads configuration from the environment, after best-effort loading
// a local .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		StorageBackend: getEnv("STORAGE_BACKEND", MemoryBackend),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),
		SeedFile:       getEnv("SEED_FILE", ""),

		ArchiveCapacity: getEnvInt("ARCHIVE_CAPACITY", 50),

		SaveInterval:   getEnvDuration("SAVE_INTERVAL", 5*time.Second),
		ExpiryInterval: getEnvDuration("EXPIRY_INTERVAL", time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{MemoryBackend, SQLiteBackend}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StorageBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid storage backend '%s': must be one of %v", c.StorageBackend, validBackends))
	}

	if c.StorageBackend == SQLiteBackend {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.ArchiveCapacity < 1 {
		errors = append(errors, fmt.Sprintf("invalid archive capacity %d: must be at least 1", c.ArchiveCapacity))
	}

	if c.SaveInterval < time.Second {
		errors = append(errors, fmt.Sprintf("save interval %v too short: must be at least 1s", c.SaveInterval))
	}
	if c.ExpiryInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("expiry interval %v too short: must be at least 1m", c.ExpiryInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
