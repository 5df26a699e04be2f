package main

import (
	"fmt"

	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/repository"
	"whatsapp-fx/internal/service"
	"whatsapp-fx/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	var falsePositive bool

	cmd := &cobra.Command{
		Use:   "resolve <detection-id>",
		Short: "Record a review verdict on a duplicate detection",
		Long: `Mark a duplicate detection as resolved, or as a false positive with
--false-positive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid detection ID: %w", err)
			}

			status := models.DetectionResolved
			if falsePositive {
				status = models.DetectionFalsePositive
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

			detection, err := duplicates.ResolveDetection(ctx, id, status)
			if err != nil {
				return fmt.Errorf("failed to update detection: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Detection %s is now %s\n", detection.ID, detection.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&falsePositive, "false-positive", false, "mark the detection as a false positive")
	return cmd
}
