package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	dataDir    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chronam",
	Short: "Rate-limited retrieval toolkit for the Chronicling America newspaper archive",
	Long: `chronam searches and downloads digitized newspaper pages from the
Chronicling America archive at chroniclingamerica.loc.gov.

Features:
  - Advanced search with the full set of archive query parameters
  - Sliding-window rate limiting shared across all requests
  - Concurrent downloads of OCR text, XML, PDF, and JP2 page files
  - Automatic retry with exponential backoff
  - Checkpointed searches and resumable downloads`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.chronam.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for downloaded files")

	// Version template
	rootCmd.SetVersionTemplate(`chronam {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags builds the command-line override map shared by all commands
func globalFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	return flags
}
