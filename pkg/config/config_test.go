package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.RateLimit.MaxCalls)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 20, cfg.RateLimit.CrawlMaxCalls)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.CrawlWindow)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 50, cfg.Query.PageSize)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero max calls",
			mutate:  func(c *Config) { c.RateLimit.MaxCalls = 0 },
			wantErr: "rate limit max calls must be positive",
		},
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.RateLimit.Window = -time.Second },
			wantErr: "rate limit window must be positive",
		},
		{
			name:    "crawl limit without window",
			mutate:  func(c *Config) { c.RateLimit.CrawlWindow = 0 },
			wantErr: "crawl window must be positive",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Query.PageSize = 0 },
			wantErr: "page size must be positive",
		},
		{
			name:    "too many workers",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 32 },
			wantErr: "concurrent downloads should not exceed 16",
		},
		{
			name:    "missing data directory",
			mutate:  func(c *Config) { c.Download.DataDirectory = "" },
			wantErr: "data directory is required",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
rate_limit:
  max_calls: 10
  window: 30s
query:
  page_size: 25
download:
  data_directory: /tmp/chronam-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 10, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 25, cfg.Query.PageSize)
	assert.Equal(t, "/tmp/chronam-test", cfg.Download.DataDirectory)
	// Untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHRONAM_MAX_CALLS", "5")
	t.Setenv("CHRONAM_RATE_WINDOW", "2s")
	t.Setenv("CHRONAM_PAGE_SIZE", "100")
	t.Setenv("CHRONAM_DATA_DIR", "/var/data/chronam")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 5, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.Query.PageSize)
	assert.Equal(t, "/var/data/chronam", cfg.Download.DataDirectory)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"data-dir":   "/flag/dir",
		"concurrent": 8,
		"max-calls":  15,
	})

	assert.Equal(t, "/flag/dir", cfg.Download.DataDirectory)
	assert.Equal(t, 8, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 15, cfg.RateLimit.MaxCalls)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved", "config.yaml")

	cfg := DefaultConfig()
	cfg.RateLimit.MaxCalls = 7
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 7, loaded.RateLimit.MaxCalls)
}
