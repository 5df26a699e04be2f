package repository

import (
	"context"
	"fmt"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "conversation_id", "currency_from", "currency_to", "amount_from", "amount_to",
	"negotiated_rate", "payment_reference", "receipt_image_url", "status", "created_at", "updated_at",
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns(transactionColumns...).
		Values(tx.ID, tx.UserID, tx.ConversationID, tx.CurrencyFrom, tx.CurrencyTo, tx.AmountFrom, tx.AmountTo,
			tx.NegotiatedRate, tx.PaymentReference, tx.ReceiptImageURL, tx.Status, tx.CreatedAt, tx.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return wrapErr("create transaction", err)
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var tx models.Transaction
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&tx.ID, &tx.UserID, &tx.ConversationID, &tx.CurrencyFrom, &tx.CurrencyTo, &tx.AmountFrom, &tx.AmountTo,
		&tx.NegotiatedRate, &tx.PaymentReference, &tx.ReceiptImageURL, &tx.Status, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr("get transaction", err)
	}

	return &tx, nil
}

// CompareAndSetStatus moves the transaction to `to` only while it is still
// at `from`. It returns false when another writer changed the status first.
func (r *TransactionRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.TransactionStatus) (bool, error) {
	query := squirrel.Update("transactions").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": from}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, wrapErr("update transaction status", err)
	}

	return tag.RowsAffected() == 1, nil
}

// attachReceipt records the payment proof URL and, when given, the quoted
// payment reference, moving the status from a.From to a.To. It writes only
// while the transaction is still at a.From, so a settled transaction keeps
// the evidence it was settled on.
func attachReceipt(ctx context.Context, db execer, a *models.ReceiptAttachment) error {
	if a.From.IsTerminal() {
		return common.InvalidInput("transaction %s is %s, receipt not attached", a.TransactionID, a.From)
	}

	query := squirrel.Update("transactions").
		Set("receipt_image_url", a.ImageURL).
		Set("status", a.To).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": a.TransactionID, "status": a.From}).
		PlaceholderFormat(squirrel.Dollar)
	if a.PaymentReference != "" {
		query = query.Set("payment_reference", a.PaymentReference)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return wrapErr("attach receipt", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attach receipt to %s: %w", a.TransactionID, common.ErrStaleStatus)
	}

	return nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("list transactions", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.ConversationID, &tx.CurrencyFrom, &tx.CurrencyTo, &tx.AmountFrom, &tx.AmountTo,
			&tx.NegotiatedRate, &tx.PaymentReference, &tx.ReceiptImageURL, &tx.Status, &tx.CreatedAt, &tx.UpdatedAt,
		); err != nil {
			return nil, wrapErr("scan transaction", err)
		}
		transactions = append(transactions, &tx)
	}

	return transactions, wrapErr("list transactions", rows.Err())
}
