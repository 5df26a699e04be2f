package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/settlement"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome tells apart the results a caller has to handle differently.
type Outcome string

const (
	OutcomeUpdatedAndNotified Outcome = "updated_and_notified"
	OutcomeUpdatedNotNotified Outcome = "updated_not_notified"
	OutcomeUnchanged          Outcome = "unchanged"
)

type TransitionResult struct {
	Success           bool
	Applied           bool
	Notified          bool
	PreviousStatus    models.TransactionStatus
	NewStatus         models.TransactionStatus
	Message           string
	NotificationError error
}

func (r *TransitionResult) Outcome() Outcome {
	switch {
	case !r.Applied:
		return OutcomeUnchanged
	case r.Notified:
		return OutcomeUpdatedAndNotified
	default:
		return OutcomeUpdatedNotNotified
	}
}

type CreateTransactionParams struct {
	UserID           uuid.UUID
	ConversationID   uuid.UUID
	CurrencyFrom     string
	CurrencyTo       string
	AmountFrom       float64
	AmountTo         float64
	NegotiatedRate   float64
	PaymentReference string
}

// SettlementService executes settlement decisions: it persists the status
// first, then sends the customer message, then reports both.
type SettlementService struct {
	transactions TransactionStore
	contacts     ContactDirectory
	notifier     Notifier
	logger       *zap.Logger
	now          func() time.Time
}

func NewSettlementService(transactions TransactionStore, contacts ContactDirectory, notifier Notifier, logger *zap.Logger) *SettlementService {
	return &SettlementService{
		transactions: transactions,
		contacts:     contacts,
		notifier:     notifier,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateTransaction stores agreed exchange terms as a pending transaction.
func (s *SettlementService) CreateTransaction(ctx context.Context, p CreateTransactionParams) (*models.Transaction, error) {
	if p.UserID == uuid.Nil || p.ConversationID == uuid.Nil {
		return nil, common.InvalidInput("user id and conversation id are required")
	}
	from := strings.ToUpper(strings.TrimSpace(p.CurrencyFrom))
	to := strings.ToUpper(strings.TrimSpace(p.CurrencyTo))
	if len(from) != 3 || len(to) != 3 {
		return nil, common.InvalidInput("currencies must be ISO 4217 codes, got %q and %q", p.CurrencyFrom, p.CurrencyTo)
	}
	if p.AmountFrom <= 0 || p.AmountTo <= 0 || p.NegotiatedRate <= 0 {
		return nil, common.InvalidInput("amounts and rate must be positive")
	}

	now := s.now()
	tx := &models.Transaction{
		ID:               uuid.New(),
		UserID:           p.UserID,
		ConversationID:   p.ConversationID,
		CurrencyFrom:     from,
		CurrencyTo:       to,
		AmountFrom:       p.AmountFrom,
		AmountTo:         p.AmountTo,
		NegotiatedRate:   p.NegotiatedRate,
		PaymentReference: strings.TrimSpace(p.PaymentReference),
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("pair", tx.CurrencyFrom+"/"+tx.CurrencyTo),
	)

	return tx, nil
}

func (s *SettlementService) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return s.transactions.GetByID(ctx, id)
}

func (s *SettlementService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, common.InvalidInput("user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByUserID(ctx, userID, limit, offset)
}

// Transition moves a transaction to target. Requests against a terminal
// transaction succeed as no-ops and report the status it already has.
// A notification failure is attached to the result; the status write it
// follows is never undone.
func (s *SettlementService) Transition(ctx context.Context, id uuid.UUID, target models.TransactionStatus, message string) (*TransitionResult, error) {
	tx, decision, err := s.apply(ctx, id, target, message)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{
		Success:        true,
		Applied:        decision.Apply,
		PreviousStatus: decision.From,
		NewStatus:      decision.To,
	}

	if !decision.Apply {
		s.logger.Info("Transition ignored",
			zap.String("transaction_id", id.String()),
			zap.String("status", string(decision.From)),
			zap.String("requested", string(target)),
		)
		return result, nil
	}

	s.logger.Info("Transaction status updated",
		zap.String("transaction_id", id.String()),
		zap.String("from", string(decision.From)),
		zap.String("to", string(decision.To)),
	)

	if decision.Notify {
		result.Message = decision.Message
		result.Notified, result.NotificationError = s.dispatch(ctx, tx, decision.Message)
	}

	return result, nil
}

// apply loads, decides and persists. If the status moved between the read
// and the write, it re-reads once: the competing writer usually reached a
// terminal status and the request becomes a no-op.
func (s *SettlementService) apply(ctx context.Context, id uuid.UUID, target models.TransactionStatus, message string) (*models.Transaction, settlement.Decision, error) {
	const attempts = 2

	for attempt := 1; ; attempt++ {
		tx, err := s.transactions.GetByID(ctx, id)
		if err != nil {
			return nil, settlement.Decision{}, err
		}

		decision, err := settlement.Decide(settlement.SnapshotOf(tx), target, message)
		if err != nil {
			return nil, settlement.Decision{}, err
		}
		if !decision.Apply {
			return tx, decision, nil
		}

		ok, err := s.transactions.CompareAndSetStatus(ctx, id, decision.From, decision.To)
		if err != nil {
			return nil, settlement.Decision{}, err
		}
		if ok {
			tx.Status = decision.To
			return tx, decision, nil
		}
		if attempt == attempts {
			return nil, settlement.Decision{}, fmt.Errorf("transaction %s changed concurrently: %w", id, common.ErrStorageUnavailable)
		}
	}
}

// AttachReceipt plans attaching a payment proof to tx and moving it to
// review. A settled transaction keeps its receipt and status: the returned
// attachment is nil and the result reports the status unchanged. The plan
// holds only while tx is still at its loaded status; the write checks that.
func (s *SettlementService) AttachReceipt(tx *models.Transaction, imageURL, paymentReference string) (*models.ReceiptAttachment, *TransitionResult, error) {
	decision, err := settlement.Decide(settlement.SnapshotOf(tx), models.StatusImageReceived, "")
	if err != nil {
		return nil, nil, err
	}

	result := &TransitionResult{
		Success:        true,
		Applied:        decision.Apply,
		PreviousStatus: decision.From,
		NewStatus:      decision.To,
	}
	if tx.Status.IsTerminal() {
		return nil, result, nil
	}

	return &models.ReceiptAttachment{
		TransactionID:    tx.ID,
		From:             decision.From,
		To:               decision.To,
		ImageURL:         imageURL,
		PaymentReference: paymentReference,
	}, result, nil
}

// dispatch sends the message to the transaction owner. An unknown contact
// is not an error: the result just reports that nobody was notified.
func (s *SettlementService) dispatch(ctx context.Context, tx *models.Transaction, message string) (bool, error) {
	user, err := s.contacts.GetByID(ctx, tx.UserID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		user = nil
	case err != nil:
		s.logger.Warn("Contact lookup failed, customer not notified",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
		return false, fmt.Errorf("%w: contact lookup: %w", common.ErrNotificationFailed, err)
	}

	if user == nil || strings.TrimSpace(user.PhoneNumber) == "" {
		s.logger.Info("No contact address, customer not notified",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("user_id", tx.UserID.String()),
		)
		return false, nil
	}

	if err := s.notifier.SendText(ctx, user.PhoneNumber, message); err != nil {
		s.logger.Error("Customer notification failed",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
		if !errors.Is(err, common.ErrNotificationFailed) {
			err = fmt.Errorf("%w: %w", common.ErrNotificationFailed, err)
		}
		return false, err
	}

	return true, nil
}
