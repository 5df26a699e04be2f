package handlers

import (
	"context"
	"io"
	"strconv"

	"whatsapp-fx/internal/dto"
	"whatsapp-fx/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentProofSubmitter interface {
	SubmitPaymentProof(ctx context.Context, in service.PaymentProofInput) (*service.PaymentProofResult, error)
}

type PaymentProofHandler struct {
	proofs PaymentProofSubmitter
	logger *zap.Logger
}

func NewPaymentProofHandler(proofs PaymentProofSubmitter, logger *zap.Logger) *PaymentProofHandler {
	return &PaymentProofHandler{
		proofs: proofs,
		logger: logger,
	}
}

// SubmitPaymentProof godoc
// @Summary Submit a payment proof image
// @Description Hash the image, classify it against earlier proofs and attach it to the transaction
// @Tags payment-proofs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Payment proof image"
// @Param user_id formData string true "Submitting user ID"
// @Param transaction_id formData string false "Transaction the proof pays for"
// @Param payment_reference formData string false "Payment reference quoted by the user"
// @Param message_id formData string false "WhatsApp message ID"
// @Param threshold formData int false "Hamming threshold override"
// @Success 201 {object} dto.PaymentProofResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/payment-proofs [post]
func (h *PaymentProofHandler) SubmitPaymentProof(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.FormValue("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	in := service.PaymentProofInput{
		UserID:           userID,
		PaymentReference: c.FormValue("payment_reference"),
		MessageID:        c.FormValue("message_id"),
	}

	if raw := c.FormValue("transaction_id"); raw != "" {
		txID, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid transaction ID")
		}
		in.TransactionID = &txID
	}

	if raw := c.FormValue("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			return badRequest(c, "Threshold must be a non-negative integer")
		}
		in.Threshold = &threshold
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Failed to open file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return badRequest(c, "Failed to read file")
	}
	in.Image = data
	in.FileName = file.Filename
	in.MimeType = file.Header.Get("Content-Type")

	result, err := h.proofs.SubmitPaymentProof(c.Context(), in)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to process payment proof")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewPaymentProofResponse(result))
}
