package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Chronicling America toolkit
type Config struct {
	// Rate limiting configuration (shared budget for every remote call)
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for page fetches and file downloads
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Query settings
	Query QueryConfig `yaml:"query" json:"query"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RateLimitConfig holds the sliding-window budgets for the loc.gov API.
// The published limits are 20 requests per minute (burst) and 20 requests
// per 10 seconds (crawl); both are enforced when CrawlMaxCalls is positive.
type RateLimitConfig struct {
	MaxCalls      int           `yaml:"max_calls" json:"max_calls"`
	Window        time.Duration `yaml:"window" json:"window"`
	CrawlMaxCalls int           `yaml:"crawl_max_calls" json:"crawl_max_calls"`
	CrawlWindow   time.Duration `yaml:"crawl_window" json:"crawl_window"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// QueryConfig holds search-specific configuration
type QueryConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
	DataDirectory       string        `yaml:"data_directory" json:"data_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			MaxCalls:      20,
			Window:        time.Minute,
			CrawlMaxCalls: 20,
			CrawlWindow:   10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Query: QueryConfig{
			PageSize: 50,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 4,
			RequestTimeout:      60 * time.Second,
			DataDirectory:       "./data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if maxCalls := os.Getenv("CHRONAM_MAX_CALLS"); maxCalls != "" {
		var val int
		fmt.Sscanf(maxCalls, "%d", &val)
		if val > 0 {
			c.RateLimit.MaxCalls = val
		}
	}

	if window := os.Getenv("CHRONAM_RATE_WINDOW"); window != "" {
		if val, err := time.ParseDuration(window); err == nil && val > 0 {
			c.RateLimit.Window = val
		}
	}

	if dataDir := os.Getenv("CHRONAM_DATA_DIR"); dataDir != "" {
		c.Download.DataDirectory = dataDir
	}

	if concurrent := os.Getenv("CHRONAM_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}

	if pageSize := os.Getenv("CHRONAM_PAGE_SIZE"); pageSize != "" {
		var val int
		fmt.Sscanf(pageSize, "%d", &val)
		if val > 0 {
			c.Query.PageSize = val
		}
	}

	if logLevel := os.Getenv("CHRONAM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".chronam.yaml",
		".chronam.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "chronam", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "chronam", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".chronam.yaml"),
		filepath.Join(os.Getenv("HOME"), ".chronam.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate rate limiting
	if c.RateLimit.MaxCalls <= 0 {
		errs = append(errs, errors.New("rate limit max calls must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.RateLimit.CrawlMaxCalls > 0 && c.RateLimit.CrawlWindow <= 0 {
		errs = append(errs, errors.New("crawl window must be positive when crawl limit is set"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry max attempts must be positive"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}

	// Validate query settings
	if c.Query.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}

	// Validate download settings
	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 16 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 16"))
	}
	if c.Download.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Download.DataDirectory == "" {
		errs = append(errs, errors.New("data directory is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Download.DataDirectory = dataDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if maxCalls, ok := flags["max-calls"].(int); ok && maxCalls > 0 {
		c.RateLimit.MaxCalls = maxCalls
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Query.PageSize = pageSize
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".chronam.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
