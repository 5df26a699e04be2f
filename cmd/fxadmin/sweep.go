package main

import (
	"fmt"
	"time"

	"whatsapp-fx/internal/repository"
	"whatsapp-fx/internal/service"
	"whatsapp-fx/pkg/logger"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete duplicate detections older than the retention age",
		Long: `Delete duplicate detections older than the retention age.
Defaults to DETECTION_RETENTION_DAYS when --max-age is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if maxAge == 0 {
				maxAge = cfg.Detection.RetentionAge
			}

			pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			duplicates := service.NewDuplicateService(
				repository.NewImageHashRepository(pool, logger.Component("image_hash_repository")),
				repository.NewDetectionRepository(pool, logger.Component("detection_repository")),
				logger.Component("duplicate_detector"),
			)

			deleted, err := duplicates.CleanupStaleDetections(ctx, maxAge)
			if err != nil {
				return fmt.Errorf("retention sweep failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d detections older than %s\n", deleted, maxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "retention age, e.g. 720h")
	return cmd
}
