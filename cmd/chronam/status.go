package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
	"github.com/owenleonard11/chronam-utils/pkg/retriever"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status <ids-file>",
	Short: "Report which page files are already on disk",
	Long: `Check the data directory for the ids listed in the file and report, per
file kind, how many are already downloaded. No network requests are made.`,
	Example: `  chronam status ids.txt
  chronam status ids.txt --data-dir ./papers`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	ids, err := query.LoadIDs(args[0])
	if err != nil {
		return err
	}

	r, err := retriever.New(cfg)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Kind", "Downloaded", "Total", "Progress"})

	kinds := []chronam.FileKind{chronam.FileText, chronam.FileXML, chronam.FilePDF, chronam.FileImage}
	for _, kind := range kinds {
		done, total := r.CheckDownloads(ids, kind)
		progress := "0%"
		if total > 0 {
			progress = fmt.Sprintf("%d%%", done*100/total)
		}
		t.AppendRow(table.Row{string(kind), done, total, progress})
	}

	t.SetStyle(table.StyleLight)
	t.Render()

	fmt.Printf("\nData directory: %s\n", r.DataDir())
	return nil
}
