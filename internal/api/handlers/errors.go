package handlers

import (
	"errors"

	"whatsapp-fx/internal/common"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, common.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON error body. Input and lookup errors
// carry their message; anything else is logged and answered generically.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case fiber.StatusServiceUnavailable:
		logger.Error(fallback, zap.Error(err))
		msg = "Storage unavailable"
	case fiber.StatusInternalServerError:
		logger.Error(fallback, zap.Error(err))
		msg = fallback
	}
	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
