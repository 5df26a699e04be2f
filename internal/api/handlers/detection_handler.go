package handlers

import (
	"context"

	"whatsapp-fx/internal/dto"
	"whatsapp-fx/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DetectionReviewer interface {
	ListDetections(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.DuplicateDetection, error)
	ResolveDetection(ctx context.Context, id uuid.UUID, status models.DetectionStatus) (*models.DuplicateDetection, error)
}

type DetectionHandler struct {
	detections DetectionReviewer
	logger     *zap.Logger
}

func NewDetectionHandler(detections DetectionReviewer, logger *zap.Logger) *DetectionHandler {
	return &DetectionHandler{
		detections: detections,
		logger:     logger,
	}
}

// ListDetections godoc
// @Summary List duplicate detections of a user
// @Tags detections
// @Produce json
// @Param user_id query string true "User ID"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.DetectionResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/detections [get]
func (h *DetectionHandler) ListDetections(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	detections, err := h.detections.ListDetections(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list detections")
	}

	resp := make([]dto.DetectionResponse, 0, len(detections))
	for _, d := range detections {
		resp = append(resp, dto.NewDetectionResponse(d))
	}

	return c.JSON(resp)
}

// UpdateDetection godoc
// @Summary Record a review verdict on a detection
// @Tags detections
// @Accept json
// @Produce json
// @Param id path string true "Detection ID"
// @Param request body dto.UpdateDetectionRequest true "resolved or false_positive"
// @Success 200 {object} dto.DetectionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/detections/{id} [patch]
func (h *DetectionHandler) UpdateDetection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid detection ID")
	}

	var req dto.UpdateDetectionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	status, ok := models.ParseDetectionStatus(req.Status)
	if !ok {
		return badRequest(c, "Unknown detection status")
	}

	detection, err := h.detections.ResolveDetection(c.Context(), id, status)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update detection")
	}

	return c.JSON(dto.NewDetectionResponse(detection))
}
