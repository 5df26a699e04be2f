package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-fx/internal/api"
	"whatsapp-fx/internal/api/handlers"
	"whatsapp-fx/internal/imagehash"
	"whatsapp-fx/internal/notify"
	"whatsapp-fx/internal/repository"
	"whatsapp-fx/internal/service"
	"whatsapp-fx/pkg/config"
	"whatsapp-fx/pkg/logger"
	"whatsapp-fx/pkg/postgres"

	"go.uber.org/zap"
)

// @title WhatsApp FX Settlement API
// @version 1.0
// @description Payment-proof duplicate detection and settlement for a WhatsApp currency exchange desk
// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting WhatsApp FX service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := postgres.Open(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, logger.Component("user_repository"))
	txRepo := repository.NewTransactionRepository(db, logger.Component("transaction_repository"))
	hashRepo := repository.NewImageHashRepository(db, logger.Component("image_hash_repository"))
	detectionRepo := repository.NewDetectionRepository(db, logger.Component("detection_repository"))

	if !cfg.WhatsApp.Enabled() {
		appLogger.Warn("WhatsApp credentials not configured, customer notifications will fail")
	}
	whatsapp := notify.NewWhatsAppClient(cfg.WhatsApp, logger.Component("whatsapp"))

	// Initialize services
	contacts := service.NewContactService(userRepo, logger.Component("contacts"))
	duplicates := service.NewDuplicateService(hashRepo, detectionRepo, logger.Component("duplicate_detector"))
	settlements := service.NewSettlementService(txRepo, userRepo, whatsapp, logger.Component("settlement"))
	proofs := service.NewPaymentProofService(
		imagehash.NewComputer(),
		duplicates,
		settlements,
		cfg.Storage.UploadDir,
		cfg.Detection.HammingThreshold,
		logger.Component("payment_proofs"),
	)

	// Initialize handlers
	proofHandler := handlers.NewPaymentProofHandler(proofs, appLogger)
	txHandler := handlers.NewTransactionHandler(settlements, appLogger)
	detectionHandler := handlers.NewDetectionHandler(duplicates, appLogger)
	contactHandler := handlers.NewContactHandler(contacts, appLogger)

	app := api.SetupRouter(api.RouterConfig{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		UploadDir:    cfg.Storage.UploadDir,
	}, proofHandler, txHandler, detectionHandler, contactHandler, appLogger)

	go sweepDetections(ctx, duplicates, cfg.Detection.RetentionAge, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

// sweepDetections applies the retention policy once a day until ctx ends.
func sweepDetections(ctx context.Context, duplicates *service.DuplicateService, maxAge time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		if _, err := duplicates.CleanupStaleDetections(ctx, maxAge); err != nil {
			log.Error("Retention sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
