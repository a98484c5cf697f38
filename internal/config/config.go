// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// MinRemoteTimeout is the floor for the chat-completion call timeout.
const MinRemoteTimeout = 60 * time.Second

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the results database (always absolute)
	LogLevel    string
	LogPretty   bool
	Port        int
	DevMode     bool
	ScanWorkers int
	OpenAI      OpenAIConfig
	Prompt      PromptConfig
	Backup      *BackupConfig
}

// OpenAIConfig holds the chat-completion endpoint settings
type OpenAIConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// PromptConfig holds the situational frame injected into every prompt
type PromptConfig struct {
	Route  string // e.g. "Highway 123"
	Region string // e.g. "South Carolina"
}

// BackupConfig holds Cloudflare R2 (S3-compatible) backup settings
type BackupConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string // Overrides the account-derived R2 endpoint when set
	Schedule        string // Standard 5-field cron spec; empty disables scheduled backups
	RetentionDays   int    // Archives older than this are rotated out; 0 keeps everything
}

// Enabled reports whether enough credentials are present to reach the bucket.
func (b *BackupConfig) Enabled() bool {
	if b == nil {
		return false
	}
	return b.Bucket != "" && b.AccessKeyID != "" && b.SecretAccessKey != "" &&
		(b.AccountID != "" || b.Endpoint != "")
}

// ResolvedEndpoint returns the S3 endpoint URL for the bucket.
func (b *BackupConfig) ResolvedEndpoint() string {
	if b.Endpoint != "" {
		return b.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", b.AccountID)
}

// DatabasePath returns the path of the results database inside DataDir
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "road_safety_results.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("ROADSCAN_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", true),
		Port:        getEnvAsInt("PORT", 8010),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		ScanWorkers: getEnvAsInt("SCAN_WORKERS", 4),
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			APIURL:  getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4"),
			Timeout: getEnvAsDuration("OPENAI_TIMEOUT", MinRemoteTimeout),
		},
		Prompt: PromptConfig{
			Route:  getEnv("PROMPT_ROUTE", "Highway 123"),
			Region: getEnv("PROMPT_REGION", "South Carolina"),
		},
		Backup: loadBackupConfig(),
	}

	// The remote call never gets less than a minute
	if cfg.OpenAI.Timeout < MinRemoteTimeout {
		cfg.OpenAI.Timeout = MinRemoteTimeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	if c.ScanWorkers < 0 {
		return fmt.Errorf("SCAN_WORKERS must not be negative, got %d", c.ScanWorkers)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.Backup != nil && c.Backup.Schedule != "" {
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE %q: %w", c.Backup.Schedule, err)
		}
	}

	// Note: OPENAI_API_KEY is checked when a scan starts, so `records` and
	// `backup` work without it.
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// loadBackupConfig loads R2 backup settings
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("R2_BUCKET", ""),
		Endpoint:        getEnv("R2_ENDPOINT", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", ""),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}
