package handlers

import (
	"context"

	"whatsapp-fx/internal/dto"
	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionManager interface {
	CreateTransaction(ctx context.Context, p service.CreateTransactionParams) (*models.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
	Transition(ctx context.Context, id uuid.UUID, target models.TransactionStatus, message string) (*service.TransitionResult, error)
}

type TransactionHandler struct {
	transactions TransactionManager
	logger       *zap.Logger
}

func NewTransactionHandler(transactions TransactionManager, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		logger:       logger,
	}
}

// CreateTransaction godoc
// @Summary Create a transaction
// @Description Store agreed exchange terms as a pending transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Exchange terms"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}
	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		return badRequest(c, "Invalid conversation ID")
	}

	tx, err := h.transactions.CreateTransaction(c.Context(), service.CreateTransactionParams{
		UserID:           userID,
		ConversationID:   conversationID,
		CurrencyFrom:     req.CurrencyFrom,
		CurrencyTo:       req.CurrencyTo,
		AmountFrom:       req.AmountFrom,
		AmountTo:         req.AmountTo,
		NegotiatedRate:   req.NegotiatedRate,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create transaction")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// GetTransaction godoc
// @Summary Get a transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	tx, err := h.transactions.GetTransaction(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get transaction")
	}

	return c.JSON(dto.NewTransactionResponse(tx))
}

// ListTransactions godoc
// @Summary List transactions of a user
// @Tags transactions
// @Produce json
// @Param user_id query string true "User ID"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.TransactionResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	txs, err := h.transactions.ListTransactions(c.Context(), userID, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list transactions")
	}

	resp := make([]dto.TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, dto.NewTransactionResponse(tx))
	}

	return c.JSON(resp)
}

// Transition godoc
// @Summary Move a transaction to a new status
// @Description Persist the status, then notify the customer on confirmation or cancellation.
// @Description A failed notification is reported in the body; the status change stands.
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body dto.TransitionRequest true "Target status and optional message"
// @Success 200 {object} dto.TransitionResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/transactions/{id}/transition [post]
func (h *TransactionHandler) Transition(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	target, ok := models.ParseTransactionStatus(req.Status)
	if !ok {
		return badRequest(c, "Unknown status")
	}

	result, err := h.transactions.Transition(c.Context(), id, target, req.Message)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update transaction status")
	}

	return c.JSON(dto.NewTransitionResponse(result))
}
