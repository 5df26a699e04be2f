package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"whatsapp-fx/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var imageHashColumns = []string{
	"id", "cryptographic_hash", "perceptual_hash", "image_url", "transaction_id",
	"payment_reference", "user_id", "message_id", "metadata", "created_at",
}

// ImageHashRepository is the append-only index of submitted payment proofs.
type ImageHashRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewImageHashRepository(db *pgxpool.Pool, logger *zap.Logger) *ImageHashRepository {
	return &ImageHashRepository{
		db:     db,
		logger: logger,
	}
}

func insertImageHash(ctx context.Context, db execer, rec *models.ImageHashRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal image metadata: %w", err)
	}

	query := squirrel.Insert("image_hashes").
		Columns(imageHashColumns...).
		Values(rec.ID, rec.CryptographicHash, rec.PerceptualHash, rec.ImageURL, rec.TransactionID,
			rec.PaymentReference, rec.UserID, rec.MessageID, metadata, rec.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, args...)
	return wrapErr("create image hash", err)
}

// GetByCryptographicHash returns the earliest record with exactly this
// digest. The lookup is served by image_hashes_cryptographic_hash_idx.
func (r *ImageHashRepository) GetByCryptographicHash(ctx context.Context, hash string) (*models.ImageHashRecord, error) {
	query := squirrel.Select(imageHashColumns...).
		From("image_hashes").
		Where(squirrel.Eq{"cryptographic_hash": hash}).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanImageHash(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, wrapErr("get image hash", err)
	}

	return rec, nil
}

// ScanAll enumerates every stored record, oldest first. It is deliberately
// unindexed and O(n): fine while the table holds a few thousand rows. When
// that stops being true, replace this method with a bucketed or LSH lookup
// that returns only candidate neighbours; callers do not need to change.
func (r *ImageHashRepository) ScanAll(ctx context.Context) ([]*models.ImageHashRecord, error) {
	query := squirrel.Select(imageHashColumns...).
		From("image_hashes").
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("scan image hashes", err)
	}
	defer rows.Close()

	var records []*models.ImageHashRecord
	for rows.Next() {
		rec, err := scanImageHash(rows)
		if err != nil {
			return nil, wrapErr("scan image hash", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("scan image hashes", err)
	}

	r.logger.Debug("Scanned image hash index", zap.Int("records", len(records)))

	return records, nil
}

func scanImageHash(row pgx.Row) (*models.ImageHashRecord, error) {
	var rec models.ImageHashRecord
	var metadata []byte
	if err := row.Scan(
		&rec.ID, &rec.CryptographicHash, &rec.PerceptualHash, &rec.ImageURL, &rec.TransactionID,
		&rec.PaymentReference, &rec.UserID, &rec.MessageID, &metadata, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal image metadata: %w", err)
		}
	}
	return &rec, nil
}
