// Package config loads runtime configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Custom file locations are resolved
// relative to the data directory and must stay inside it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/JamesPrial/tasktracker/internal/pathutil"
)

// Backend selection modes for TASKS_BACKEND.
const (
	BackendAuto     = "auto"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

const (
	defaultFileName   = "tasks_data.csv"
	defaultSQLiteName = "tasks.db"
	sqliteDirName     = ".tasks"
)

// Config holds every setting the commands need.
type Config struct {
	// DataDir is the base directory for local data files (TASKS_HOME,
	// default: the user's home directory).
	DataDir string

	// Backend is one of auto, sqlite, postgres, file (TASKS_BACKEND).
	Backend string

	// DatabaseURL is a PostgreSQL connection string (TASKS_DATABASE_URL).
	// When set, the relational backend is PostgreSQL instead of SQLite.
	DatabaseURL string

	// SQLitePath is the embedded database file (TASKS_SQLITE_PATH,
	// default: <DataDir>/.tasks/tasks.db).
	SQLitePath string

	// FilePath is the flat-file store (TASKS_FILE_PATH,
	// default: <DataDir>/tasks_data.csv).
	FilePath string

	// LogLevel is debug, info, warn or error (LOG_LEVEL).
	LogLevel string

	// LogFormat is json or console (LOG_FORMAT).
	LogFormat string
}

// Load reads the configuration from the environment.
//
// A .env file in the working directory is applied first if present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := strings.TrimSpace(os.Getenv("TASKS_HOME"))
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = "."
		}
		dataDir = home
	}
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     dataDir,
		Backend:     strings.ToLower(getEnv("TASKS_BACKEND", BackendAuto)),
		DatabaseURL: getEnv("TASKS_DATABASE_URL", ""),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	cfg.SQLitePath, err = resolvePath(dataDir, "TASKS_SQLITE_PATH", filepath.Join(dataDir, sqliteDirName, defaultSQLiteName))
	if err != nil {
		return nil, err
	}
	cfg.FilePath, err = resolvePath(dataDir, "TASKS_FILE_PATH", filepath.Join(dataDir, defaultFileName))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that every field holds a supported value.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendSQLite, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("TASKS_DATABASE_URL is required when TASKS_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q. Expected 'auto', 'sqlite', 'postgres' or 'file'", c.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.LogFormat)
	}

	return nil
}

// resolvePath returns the validated value of env, or def when it is unset.
func resolvePath(dataDir, env, def string) (string, error) {
	custom := strings.TrimSpace(os.Getenv(env))
	if custom == "" {
		return def, nil
	}

	safePath, err := pathutil.ResolveSafePath(dataDir, custom)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", env, err)
	}
	return safePath, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
