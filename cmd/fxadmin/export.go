package main

import (
	"fmt"
	"os"
	"time"

	"whatsapp-fx/internal/repository"
	"whatsapp-fx/internal/service"
	"whatsapp-fx/pkg/logger"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		since string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export duplicate detections to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			from, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			exporter := service.NewExportService(
				repository.NewDetectionRepository(pool, logger.Component("detection_repository")),
				logger.Component("export"),
			)

			data, rows, err := exporter.DetectionsXLSX(ctx, from)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d detections since %s to %s\n", rows, from.Format(time.DateOnly), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "30d", "start date (YYYY-MM-DD) or age such as 7d or 48h")
	cmd.Flags().StringVarP(&out, "out", "o", "detections.xlsx", "output file")
	return cmd
}

// parseSince accepts a date, a Go duration or a whole number of days
// suffixed with "d".
func parseSince(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	var days int
	if _, err := fmt.Sscanf(value, "%dd", &days); err == nil && fmt.Sprintf("%dd", days) == value {
		if days < 0 {
			return time.Time{}, fmt.Errorf("invalid --since %q: negative age", value)
		}
		return now.AddDate(0, 0, -days), nil
	}

	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid --since %q: use YYYY-MM-DD, 7d or 48h", value)
	}
	return now.Add(-d), nil
}
