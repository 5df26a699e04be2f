// Package settlement holds the transaction lifecycle rules. It performs no
// I/O: Decide says what should happen, and the caller persists the status
// and sends the message.
package settlement

import (
	"fmt"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/models"

	"github.com/google/uuid"
)

// transitions lists, for each non-terminal status, the statuses it may move
// to. Terminal statuses have no entry.
//
// pending -> confirmed skips the review state. Some flows confirm directly,
// so both predecessors stay legal until product decides otherwise.
var transitions = map[models.TransactionStatus]map[models.TransactionStatus]bool{
	models.StatusPending: {
		models.StatusImageReceived: true,
		models.StatusConfirmed:     true,
		models.StatusCancelled:     true,
		models.StatusFailed:        true,
	},
	models.StatusImageReceived: {
		models.StatusConfirmed: true,
		models.StatusCancelled: true,
		models.StatusFailed:    true,
	},
}

// notifying are the target statuses that produce a customer message.
var notifying = map[models.TransactionStatus]bool{
	models.StatusConfirmed: true,
	models.StatusCancelled: true,
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to models.TransactionStatus) bool {
	return transitions[from][to]
}

// Snapshot is the slice of a transaction the rules need.
type Snapshot struct {
	ID           uuid.UUID
	Status       models.TransactionStatus
	AmountFrom   float64
	CurrencyFrom string
}

func SnapshotOf(tx *models.Transaction) Snapshot {
	return Snapshot{
		ID:           tx.ID,
		Status:       tx.Status,
		AmountFrom:   tx.AmountFrom,
		CurrencyFrom: tx.CurrencyFrom,
	}
}

// Decision is the outcome of applying a requested status to a snapshot.
// When Apply is false the transaction stays at From and nothing is sent.
type Decision struct {
	From    models.TransactionStatus
	To      models.TransactionStatus
	Apply   bool
	Notify  bool
	Message string
}

// Decide applies the lifecycle rules:
//   - a terminal snapshot never changes; the call is a no-op reporting the
//     current status;
//   - re-requesting the current non-terminal status is a no-op;
//   - any other edge missing from the table is ErrInvalidTransition.
//
// The message is the caller's when given, otherwise the template for the
// target status.
func Decide(s Snapshot, target models.TransactionStatus, message string) (Decision, error) {
	if _, ok := models.ParseTransactionStatus(string(target)); !ok {
		return Decision{}, common.InvalidInput("unknown status %q", target)
	}

	if s.Status.IsTerminal() || s.Status == target {
		return Decision{From: s.Status, To: s.Status}, nil
	}

	if !CanTransition(s.Status, target) {
		return Decision{}, fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, s.Status, target)
	}

	d := Decision{From: s.Status, To: target, Apply: true}
	if notifying[target] {
		d.Notify = true
		d.Message = message
		if d.Message == "" {
			d.Message = DefaultMessage(s, target)
		}
	}

	return d, nil
}

// ShortID is the customer-facing reference: the last 8 characters of the id.
func ShortID(id uuid.UUID) string {
	s := id.String()
	return s[len(s)-8:]
}

// DefaultMessage renders the template for a notifying status. Statuses that
// do not notify render an empty string.
func DefaultMessage(s Snapshot, status models.TransactionStatus) string {
	amount := fmt.Sprintf("%.2f %s", s.AmountFrom, s.CurrencyFrom)

	switch status {
	case models.StatusConfirmed:
		return fmt.Sprintf(
			"✅ Your exchange #%s is complete. We received your payment of %s and the money has been sent to you. Thank you!",
			ShortID(s.ID), amount,
		)
	case models.StatusCancelled:
		return fmt.Sprintf(
			"❌ Your exchange #%s for %s has been cancelled. If this is unexpected, reply to this message and we will help.",
			ShortID(s.ID), amount,
		)
	}
	return ""
}
