package handlers

import (
	"context"

	"whatsapp-fx/internal/dto"
	"whatsapp-fx/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContactRegistry interface {
	RegisterContact(ctx context.Context, phone, displayName string) (*models.User, bool, error)
	GetContact(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ContactHandler struct {
	contacts ContactRegistry
	logger   *zap.Logger
}

func NewContactHandler(contacts ContactRegistry, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		logger:   logger,
	}
}

// RegisterContact godoc
// @Summary Register a WhatsApp contact
// @Description Return the user owning the number, creating it on first contact
// @Tags contacts
// @Accept json
// @Produce json
// @Param request body dto.RegisterContactRequest true "WhatsApp number and display name"
// @Success 200 {object} dto.ContactResponse
// @Success 201 {object} dto.ContactResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/contacts [post]
func (h *ContactHandler) RegisterContact(c *fiber.Ctx) error {
	var req dto.RegisterContactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, created, err := h.contacts.RegisterContact(c.Context(), req.PhoneNumber, req.DisplayName)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to register contact")
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(dto.NewContactResponse(user))
}

// GetContact godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.ContactResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/contacts/{id} [get]
func (h *ContactHandler) GetContact(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	user, err := h.contacts.GetContact(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get contact")
	}

	return c.JSON(dto.NewContactResponse(user))
}
