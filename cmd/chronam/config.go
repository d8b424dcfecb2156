package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/owenleonard11/chronam-utils/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage chronam configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (CHRONAM_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'chronam.yaml' unless a
different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	RunE: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - Path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# chronam configuration file
#
# This file contains all available configuration options. You can also use
# environment variables prefixed with CHRONAM_, for example
# CHRONAM_DATA_DIR or CHRONAM_MAX_CALLS.

# Rate limiting. The archive publishes a burst budget and a crawl budget;
# both are enforced on every request.
rate_limit:
  # Burst budget: requests per window
  max_calls: 20
  window: 1m

  # Crawl budget: requests per window
  crawl_max_calls: 20
  crawl_window: 10s

# Retry behavior for transient failures
retry:
  # Maximum attempts per request (including the first)
  max_attempts: 3

  # Exponential backoff parameters
  base_delay: 1s
  max_delay: 60s
  multiplier: 2.0
  jitter_factor: 0.1

# Search behavior
query:
  # Results per request, up to the archive maximum of 100
  page_size: 50

# Download behavior
download:
  # Number of concurrent download workers
  # Range: 1-16
  concurrent_downloads: 4

  # Per-request timeout
  request_timeout: 60s

  # Directory for downloaded page files
  data_directory: "./data"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the console only
  file: ""

  # Log rotation
  max_size: 100
  max_backups: 3
  max_age: 30
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "chronam.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Printf("Configuration file created: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Adjust the settings to taste")
	fmt.Println("2. Run 'chronam config validate' to check the configuration")
	fmt.Println("3. Start searching with 'chronam search'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (CHRONAM_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		// Try to find config file in common locations
		possiblePaths := []string{
			"chronam.yaml",
			"chronam.yml",
			".chronam.yaml",
			".chronam.yml",
			filepath.Join(os.Getenv("HOME"), ".chronam.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "chronam", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			return fmt.Errorf("no configuration file found; specify one with --config")
		}
	}

	fmt.Printf("Validating configuration: %s\n", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var errors []string

	// Check paths
	if cfg.Download.DataDirectory != "" {
		if err := os.MkdirAll(cfg.Download.DataDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create data directory: %v", err))
		}
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(errors) > 0 {
		fmt.Println("Configuration has errors:")
		for _, e := range errors {
			fmt.Printf("  - %s\n", e)
		}
		os.Exit(1)
	}

	fmt.Println("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Data directory: %s\n", cfg.Download.DataDirectory)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d calls per %s (crawl: %d per %s)\n",
		cfg.RateLimit.MaxCalls, cfg.RateLimit.Window,
		cfg.RateLimit.CrawlMaxCalls, cfg.RateLimit.CrawlWindow)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
