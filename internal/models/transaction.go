package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusPending       TransactionStatus = "pending"
	StatusImageReceived TransactionStatus = "image_received_and_being_reviewed"
	StatusConfirmed     TransactionStatus = "confirmed_and_money_sent_to_user"
	StatusCancelled     TransactionStatus = "cancelled"
	StatusFailed        TransactionStatus = "failed"
)

// ParseTransactionStatus accepts only the canonical status strings.
func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	switch st := TransactionStatus(s); st {
	case StatusPending, StatusImageReceived, StatusConfirmed, StatusCancelled, StatusFailed:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no further transition can change the status.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusFailed
}

// Transaction is a currency exchange agreed between a user and the agent.
type Transaction struct {
	ID               uuid.UUID         `db:"id"`
	UserID           uuid.UUID         `db:"user_id"`
	ConversationID   uuid.UUID         `db:"conversation_id"`
	CurrencyFrom     string            `db:"currency_from"`
	CurrencyTo       string            `db:"currency_to"`
	AmountFrom       float64           `db:"amount_from"`
	AmountTo         float64           `db:"amount_to"`
	NegotiatedRate   float64           `db:"negotiated_rate"`
	PaymentReference string            `db:"payment_reference"`
	ReceiptImageURL  string            `db:"receipt_image_url"`
	Status           TransactionStatus `db:"status"`
	CreatedAt        time.Time         `db:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at"`
}

// ReceiptAttachment links a payment proof to a transaction that is still at
// From and moves it to To in the same write. From equal to To keeps the
// status and only replaces the receipt.
type ReceiptAttachment struct {
	TransactionID    uuid.UUID
	From             TransactionStatus
	To               TransactionStatus
	ImageURL         string
	PaymentReference string
}
