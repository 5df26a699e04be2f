package repository

import (
	"context"

	"whatsapp-fx/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is satisfied by both the pool and an open transaction, so the
// insert helpers run the same way inside and outside BeginFunc.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RecordSubmission writes everything one payment proof produces in a single
// transaction: the hash record, the duplicate detection when there is one,
// and the receipt attachment when the proof names a transaction. Either all
// of it is committed or none of it is. A receipt whose transaction left
// receipt.From in the meantime fails with common.ErrStaleStatus.
func (r *ImageHashRepository) RecordSubmission(
	ctx context.Context,
	rec *models.ImageHashRecord,
	detection *models.DuplicateDetection,
	receipt *models.ReceiptAttachment,
) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertImageHash(ctx, tx, rec); err != nil {
			return err
		}
		if detection != nil {
			if err := insertDetection(ctx, tx, detection); err != nil {
				return err
			}
		}
		if receipt != nil {
			return attachReceipt(ctx, tx, receipt)
		}
		return nil
	})

	return wrapErr("record submission", err)
}
