package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"goposterior/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Data      DataConfig
	Sampler   SamplerConfig
	Analysis  AnalysisConfig
	Log       LogConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory run ledger.
type DatabaseConfig struct {
	URL            string
	MaxOpenConns   int
	ConnectTimeout time.Duration
}

// Enabled reports whether runs are persisted to PostgreSQL
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DataConfig points at the player-season table
type DataConfig struct {
	File  string
	Sheet string
}

// SamplerConfig holds Monte Carlo defaults
type SamplerConfig struct {
	Seed       int64
	Draws      int
	Bins       int
	FallbackSD float64
}

// AnalysisConfig holds aggregation defaults
type AnalysisConfig struct {
	MinMinutes    float64
	Nuisance      string
	WeightByGames bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Database = *loadDatabaseConfig()
	config.Server = *loadServerConfig()
	config.Data = *loadDataConfig()

	samplerConfig, err := loadSamplerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sampler configuration")
	}
	config.Sampler = *samplerConfig

	config.Analysis = *loadAnalysisConfig()
	config.Log = LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")}
	config.Profiling = *loadProfilingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:            os.Getenv("DATABASE_URL"),
		MaxOpenConns:   getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnectTimeout: getEnvDurationOrDefault("DB_CONNECT_TIMEOUT", 5*time.Second),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		GinMode:      getEnvOrDefault("GIN_MODE", "debug"),
		ReadTimeout:  getEnvDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		// EXCEL_FILE is accepted for older .env files
		File:  getEnvOrDefault("DATA_FILE", os.Getenv("EXCEL_FILE")),
		Sheet: getEnvOrDefault("DATA_SHEET", ""),
	}
}

func loadSamplerConfig() (*SamplerConfig, error) {
	seed := int64(42)
	if value := os.Getenv("SAMPLER_SEED"); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("SAMPLER_SEED must be an integer, got %q", value))
		}
		seed = parsed
	}

	return &SamplerConfig{
		Seed:       seed,
		Draws:      getEnvIntOrDefault("SAMPLER_DRAWS", 10000),
		Bins:       getEnvIntOrDefault("SAMPLER_BINS", 40),
		FallbackSD: getEnvFloatOrDefault("SAMPLER_FALLBACK_SD", 0),
	}, nil
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		MinMinutes:    getEnvFloatOrDefault("MIN_MINUTES", 500),
		Nuisance:      getEnvOrDefault("NUISANCE_MODE", "pooled"),
		WeightByGames: getEnvBoolOrDefault("WEIGHT_BY_GAMES", false),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("GIN_MODE must be debug, release or test, got %q", config.Server.GinMode))
	}
	if config.Sampler.Draws <= 0 {
		return errors.ConfigInvalid("SAMPLER_DRAWS must be positive")
	}
	if config.Sampler.Bins <= 0 {
		return errors.ConfigInvalid("SAMPLER_BINS must be positive")
	}
	if config.Sampler.FallbackSD < 0 {
		return errors.ConfigInvalid("SAMPLER_FALLBACK_SD cannot be negative")
	}
	if config.Analysis.MinMinutes < 0 {
		return errors.ConfigInvalid("MIN_MINUTES cannot be negative")
	}
	switch config.Analysis.Nuisance {
	case "pooled", "within_player":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("NUISANCE_MODE must be pooled or within_player, got %q", config.Analysis.Nuisance))
	}
	if config.Data.File != "" {
		switch strings.ToLower(filepath.Ext(config.Data.File)) {
		case ".csv", ".xlsx":
		default:
			return errors.ConfigInvalid(fmt.Sprintf("DATA_FILE must be .csv or .xlsx, got %q", config.Data.File))
		}
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
