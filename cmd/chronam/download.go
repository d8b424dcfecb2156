package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/download"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/retriever"
)

var (
	// Download command flags
	downloadKind       string
	downloadConcurrent int
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <ids-file>",
	Short: "Download page files for the ids in a file",
	Long: `Download the file of the given kind for every archive page id listed in
the file (one id per line, as written by 'chronam search').

Files land under the data directory mirroring the archive's layout, e.g.
sn86069873/1900-01-05/ed-1/seq-3.txt. Files already on disk are skipped, so
an interrupted run can simply be started again. A page whose download fails
after retries is reported without stopping the others.`,
	Example: `  # OCR text for every id
  chronam download ids.txt

  # Page scans as PDF into a specific directory with more workers
  chronam download ids.txt --kind pdf --data-dir ./papers --concurrent 8`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadKind, "kind", "k", "text", "file kind: text, pdf, xml, image")
	downloadCmd.Flags().IntVar(&downloadConcurrent, "concurrent", 0, "concurrent downloads (0 = configured default)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	kind, err := chronam.ParseFileKind(downloadKind)
	if err != nil {
		return err
	}

	flags := globalFlags()
	if downloadConcurrent > 0 {
		flags["concurrent"] = downloadConcurrent
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	r, err := retriever.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	targets, err := r.DownloadFromFile(ctx, args[0], kind)
	if targets != nil {
		printDownloadSummary(targets, r.DataDir())
	}
	if err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	if failed := failedTargets(targets); len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed; re-run to retry them", len(failed), len(targets))
	}
	return nil
}

func failedTargets(targets []*download.Target) []*download.Target {
	var failed []*download.Target
	for _, t := range targets {
		if t.Status == download.TargetFailed {
			failed = append(failed, t)
		}
	}
	return failed
}

func printDownloadSummary(targets []*download.Target, dataDir string) {
	var done, skipped, failed, pending int
	for _, target := range targets {
		switch target.Status {
		case download.TargetDone:
			done++
			if target.Skipped {
				skipped++
			}
		case download.TargetFailed:
			failed++
		default:
			pending++
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Targets", "Done", "Skipped", "Failed", "Pending"})
	t.AppendRow(table.Row{len(targets), done, skipped, failed, pending})
	t.SetStyle(table.StyleLight)
	t.Render()

	fmt.Printf("\nFiles are under %s\n", dataDir)

	if failed > 0 {
		ft := table.NewWriter()
		ft.SetOutputMirror(os.Stdout)
		ft.AppendHeader(table.Row{"Failed page", "Error"})
		for _, target := range targets {
			if target.Status != download.TargetFailed {
				continue
			}
			msg := target.Err.Error()
			if len(msg) > 72 {
				msg = msg[:69] + "..."
			}
			ft.AppendRow(table.Row{target.ID, msg})
		}
		ft.SetStyle(table.StyleLight)
		fmt.Println()
		ft.Render()
	}
}
