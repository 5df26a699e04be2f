package dto

import (
	"time"

	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/service"
)

type CreateTransactionRequest struct {
	UserID           string  `json:"user_id"`
	ConversationID   string  `json:"conversation_id"`
	CurrencyFrom     string  `json:"currency_from"`
	CurrencyTo       string  `json:"currency_to"`
	AmountFrom       float64 `json:"amount_from"`
	AmountTo         float64 `json:"amount_to"`
	NegotiatedRate   float64 `json:"negotiated_rate"`
	PaymentReference string  `json:"payment_reference"`
}

type TransactionResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	ConversationID   string  `json:"conversation_id"`
	CurrencyFrom     string  `json:"currency_from"`
	CurrencyTo       string  `json:"currency_to"`
	AmountFrom       float64 `json:"amount_from"`
	AmountTo         float64 `json:"amount_to"`
	NegotiatedRate   float64 `json:"negotiated_rate"`
	PaymentReference string  `json:"payment_reference,omitempty"`
	ReceiptImageURL  string  `json:"receipt_image_url,omitempty"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func NewTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               tx.ID.String(),
		UserID:           tx.UserID.String(),
		ConversationID:   tx.ConversationID.String(),
		CurrencyFrom:     tx.CurrencyFrom,
		CurrencyTo:       tx.CurrencyTo,
		AmountFrom:       tx.AmountFrom,
		AmountTo:         tx.AmountTo,
		NegotiatedRate:   tx.NegotiatedRate,
		PaymentReference: tx.PaymentReference,
		ReceiptImageURL:  tx.ReceiptImageURL,
		Status:           string(tx.Status),
		CreatedAt:        tx.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        tx.UpdatedAt.Format(time.RFC3339),
	}
}

type TransitionRequest struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type TransitionResponse struct {
	Success           bool   `json:"success"`
	Outcome           string `json:"outcome"`
	Notified          bool   `json:"notified"`
	PreviousStatus    string `json:"previous_status"`
	NewStatus         string `json:"new_status"`
	Message           string `json:"message,omitempty"`
	NotificationError string `json:"notification_error,omitempty"`
}

func NewTransitionResponse(r *service.TransitionResult) *TransitionResponse {
	if r == nil {
		return nil
	}
	resp := &TransitionResponse{
		Success:        r.Success,
		Outcome:        string(r.Outcome()),
		Notified:       r.Notified,
		PreviousStatus: string(r.PreviousStatus),
		NewStatus:      string(r.NewStatus),
		Message:        r.Message,
	}
	if r.NotificationError != nil {
		resp.NotificationError = r.NotificationError.Error()
	}
	return resp
}
