// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/compass/internal/modules/settings"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for all databases (always absolute)
	Host             string
	Port             int
	LogLevel         string
	LogPretty        bool
	DevMode          bool
	SimulationSeed   int64 // 0 = derive from wall clock at startup
	SimulationTrials int   // Default trial count when a request omits it
	CacheTTL         time.Duration
	Backup           *BackupConfig
}

// BackupConfig holds S3 backup configuration.
// Works with AWS S3 and S3-compatible stores (custom endpoint).
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // Optional custom endpoint for S3-compatible providers
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check COMPASS_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("COMPASS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Host:             getEnv("COMPASS_HOST", "0.0.0.0"),
		Port:             getEnvAsInt("COMPASS_PORT", 8000),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		SimulationSeed:   getEnvAsInt64("SIM_SEED", 0),
		SimulationTrials: getEnvAsInt("SIM_TRIALS", 1000),
		CacheTTL:         time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		Backup:           loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// This should be called after the config database is initialized but
// before services are constructed, so settings DB values take precedence
// over environment variables everywhere.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	trials, err := settingsRepo.GetInt("simulation_trials_default", c.SimulationTrials)
	if err != nil {
		return fmt.Errorf("failed to get simulation_trials_default from settings: %w", err)
	}
	if trials > 0 {
		c.SimulationTrials = trials
	}

	ttlSeconds, err := settingsRepo.GetInt("simulation_cache_ttl_seconds", int(c.CacheTTL.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to get simulation_cache_ttl_seconds from settings: %w", err)
	}
	if ttlSeconds > 0 {
		c.CacheTTL = time.Duration(ttlSeconds) * time.Second
	}

	if c.Backup != nil {
		backupEnabled, err := settingsRepo.GetBool("backup_enabled", c.Backup.Enabled)
		if err != nil {
			return fmt.Errorf("failed to get backup_enabled from settings: %w", err)
		}
		c.Backup.Enabled = backupEnabled

		retentionDays, err := settingsRepo.GetInt("backup_retention_days", c.Backup.RetentionDays)
		if err != nil {
			return fmt.Errorf("failed to get backup_retention_days from settings: %w", err)
		}
		if retentionDays >= 0 {
			c.Backup.RetentionDays = retentionDays
		}
	}

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.SimulationTrials <= 0 {
		return fmt.Errorf("simulation trials must be positive, got %d", c.SimulationTrials)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative")
	}
	if c.Backup != nil && c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup enabled but BACKUP_S3_BUCKET is not set")
	}
	return nil
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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

// loadBackupConfig loads S3 backup configuration from environment variables.
// Backups stay disabled unless explicitly enabled and a bucket is configured.
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("BACKUP_S3_PREFIX", "compass-backup"),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}
