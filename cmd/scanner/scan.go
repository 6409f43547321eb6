package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"playlistscanner/internal/model"
	"playlistscanner/internal/service"
)

func newScanCmd() *cobra.Command {
	var (
		output string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <query>",
		Short: "Scan all tracked playlists for an artist or track and write a PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(true)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			c, err := components(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var progress func(done, total int)
			if !quiet {
				progress = progressPrinter(cmd.ErrOrStderr())
			}

			outcome, err := c.Scans.Scan(ctx, args[0], progress)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), outcome)

			if output == "" {
				return nil
			}
			if outcome.ReportErr != nil {
				return fmt.Errorf("report not written: %w", outcome.ReportErr)
			}
			pdf, err := c.Scans.Report(ctx, outcome.Result.ID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "playlist_scan_report.pdf", "PDF report path, empty to skip")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

// progressPrinter печатает прогресс из нескольких воркеров. Запаздывающие
// обновления с меньшим done пропускаются.
func progressPrinter(w io.Writer) func(done, total int) {
	var (
		mu   sync.Mutex
		last int
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if done <= last {
			return
		}
		last = done
		fmt.Fprintf(w, "\rScanning playlists: %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}

func printOutcome(w io.Writer, outcome *service.Outcome) {
	result := outcome.Result
	summary := result.Summary()

	fmt.Fprintln(w, summary.Headline)
	for _, entry := range result.OrderedEntries() {
		fmt.Fprintf(w, "\n%s by %s\n", entry.Track.Name, entry.Track.ArtistNames())
		for _, pl := range entry.Playlists {
			fmt.Fprintf(w, "  %-40s #%-4d %s\n", pl.Name, pl.Position, pl.URL)
		}
	}

	if summary.FailureHeadline != "" {
		fmt.Fprintf(w, "\n%s:\n", summary.FailureHeadline)
		for _, f := range result.Failures {
			fmt.Fprintf(w, "  %s %s: %s\n", f.Ref.Provider, displayRef(f.Ref), f.Reason)
		}
	}
}

func displayRef(ref model.PlaylistRef) string {
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}
