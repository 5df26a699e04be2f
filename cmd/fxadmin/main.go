package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"whatsapp-fx/pkg/config"
	"whatsapp-fx/pkg/logger"
	"whatsapp-fx/pkg/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "fxadmin",
		Short: "Maintenance tasks for the WhatsApp FX service",
		Long: `fxadmin runs database migrations, applies the detection retention policy,
exports duplicate detections for review and records review verdicts.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(resolveCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	level := cfg.Logger.Level
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	if err := logger.Init(level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openPool connects to the database and applies pending migrations.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgres.Open(ctx, &cfg.Database, logger.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return pool, nil
}
