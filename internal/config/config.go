package config

import (
	"os"
	"strconv"

	"synergyfit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Data      DataConfig
	Analysis  AnalysisConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig holds the dataset root directory. File paths are derived from
// the conventional per-cell-line layout under the root.
type DataConfig struct {
	Root string
}

// AnalysisConfig holds default analysis parameters; all of them can be
// overridden per request or per CLI invocation.
type AnalysisConfig struct {
	Seed       int64
	Classes    int
	SampleSize int
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Data: DataConfig{
			Root: getEnvOrDefault("DATA_ROOT", "./data"),
		},
		Analysis: AnalysisConfig{
			Seed:       int64(getEnvIntOrDefault("ANALYSIS_SEED", 42)),
			Classes:    getEnvIntOrDefault("ANALYSIS_CLASSES", 3),
			SampleSize: getEnvIntOrDefault("ANALYSIS_SAMPLE_SIZE", 1000),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Analysis.Classes < 1 {
		return errors.ConfigInvalid("ANALYSIS_CLASSES must be at least 1")
	}
	if config.Analysis.SampleSize < 0 {
		return errors.ConfigInvalid("ANALYSIS_SAMPLE_SIZE must be non-negative (0 analyzes all unique models)")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
