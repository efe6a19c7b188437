// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/sweep"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Directory of the sweeps database, always absolute
	LogLevel     string
	Port         int
	DevMode      bool
	Workers      int // Concurrent sweep evaluations
	FockTrunc    int
	TaylorDegree int
	MaxGridCells int // Largest sweep grid accepted over HTTP
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("SNAIL_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("SNAIL_PORT", 8010),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Workers:      getEnvAsInt("SNAIL_WORKERS", runtime.NumCPU()),
		FockTrunc:    getEnvAsInt("SNAIL_FOCK_TRUNC", ancilla.DefaultFockTrunc),
		TaylorDegree: getEnvAsInt("SNAIL_TAYLOR_DEGREE", expansion.DefaultDegree),
		MaxGridCells: getEnvAsInt("SNAIL_MAX_GRID_CELLS", sweep.DefaultMaxGridCells),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the numeric settings
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: SNAIL_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.FockTrunc < 2 {
		return fmt.Errorf("config: SNAIL_FOCK_TRUNC must be at least 2, got %d", c.FockTrunc)
	}
	if c.TaylorDegree < expansion.NonlinearMinimumDegree {
		return fmt.Errorf("config: SNAIL_TAYLOR_DEGREE must be at least %d, got %d", expansion.NonlinearMinimumDegree, c.TaylorDegree)
	}
	if c.MaxGridCells < 1 {
		return fmt.Errorf("config: SNAIL_MAX_GRID_CELLS must be at least 1, got %d", c.MaxGridCells)
	}
	return nil
}

// DatabasePath is the location of the sweeps database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "sweeps.db")
}

// AncillaOptions returns the numerical defaults for new ancillas.
func (c *Config) AncillaOptions() ancilla.Options {
	return ancilla.Options{
		FockTrunc: c.FockTrunc,
		Expansion: expansion.Options{Degree: c.TaylorDegree},
	}
}

// Helper functions
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
