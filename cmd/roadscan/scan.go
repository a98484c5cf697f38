package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/roadscan/internal/modules/scanning"
)

var scanWorkers int

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Assess every image in a directory and print the results",
	Long: `Processes every .jpg, .jpeg, .png and .bmp file directly inside <dir>.
A failing image is reported and skipped; the command only fails when the
directory itself cannot be read.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "parallel workers (0 uses SCAN_WORKERS)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanWorkers < 0 {
		return fmt.Errorf("--workers must not be negative")
	}

	container, err := current.wire()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Close(closeCtx)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := func(done, total int, last scanning.Outcome) {
		current.log.Debug().
			Int("done", done).
			Int("total", total).
			Str("path", last.Path).
			Bool("failed", last.Failed()).
			Msg("Scan progress")
	}

	report, err := container.ScanningService.ScanDirectory(ctx, args[0], scanWorkers, progress)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)
	return nil
}

// printReport writes each outcome in input order, then a summary line
func printReport(w io.Writer, report *scanning.Report) {
	for _, o := range report.Outcomes {
		if o.Failed() {
			fmt.Fprintf(w, "Error processing %s: %v\n", o.Path, o.Err)
			continue
		}
		fmt.Fprintf(w, "\n=== %s ===\n%s\n\n---\n", filepath.Base(o.Path), o.Result)
	}

	fmt.Fprintf(w, "\nProcessed %d image(s): %d succeeded, %d failed in %s (run %s)\n",
		len(report.Outcomes),
		report.Succeeded(),
		report.Failed(),
		report.Duration().Round(time.Millisecond),
		report.RunID,
	)
}
