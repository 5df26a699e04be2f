package api

import (
	"time"

	"whatsapp-fx/internal/api/handlers"
	"whatsapp-fx/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type RouterConfig struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	UploadDir    string
}

func SetupRouter(
	cfg RouterConfig,
	proofHandler *handlers.PaymentProofHandler,
	txHandler *handlers.TransactionHandler,
	detectionHandler *handlers.DetectionHandler,
	contactHandler *handlers.ContactHandler,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.RequestIDHeader,
	}))
	app.Use(middleware.RequestLogger(appLogger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if cfg.UploadDir != "" {
		appLogger.Info("Serving uploads", zap.String("path", cfg.UploadDir))
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api/v1")

	api.Post("/payment-proofs", proofHandler.SubmitPaymentProof)

	contacts := api.Group("/contacts")
	contacts.Post("", contactHandler.RegisterContact)
	contacts.Get("/:id", contactHandler.GetContact)

	transactions := api.Group("/transactions")
	transactions.Post("", txHandler.CreateTransaction)
	transactions.Get("", txHandler.ListTransactions)
	transactions.Get("/:id", txHandler.GetTransaction)
	transactions.Post("/:id/transition", txHandler.Transition)

	detections := api.Group("/detections")
	detections.Get("", detectionHandler.ListDetections)
	detections.Patch("/:id", detectionHandler.UpdateDetection)

	return app
}
