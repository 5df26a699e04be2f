package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"whatsapp-fx/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var detectionColumns = []string{
	"id", "hash", "user_id", "detection_data", "transaction_id", "detected_at", "status",
}

type DetectionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDetectionRepository(db *pgxpool.Pool, logger *zap.Logger) *DetectionRepository {
	return &DetectionRepository{
		db:     db,
		logger: logger,
	}
}

func insertDetection(ctx context.Context, db execer, d *models.DuplicateDetection) error {
	data, err := json.Marshal(d.DetectionData)
	if err != nil {
		return fmt.Errorf("marshal detection data: %w", err)
	}

	query := squirrel.Insert("duplicate_detections").
		Columns(detectionColumns...).
		Values(d.ID, d.Hash, d.UserID, data, d.TransactionID, d.DetectedAt, d.Status).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, sql, args...)
	return wrapErr("create detection", err)
}

func (r *DetectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DuplicateDetection, error) {
	query := squirrel.Select(detectionColumns...).
		From("duplicate_detections").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	d, err := scanDetection(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, wrapErr("get detection", err)
	}

	return d, nil
}

func (r *DetectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.DetectionStatus) error {
	query := squirrel.Update("duplicate_detections").
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return wrapErr("update detection status", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("update detection status", pgx.ErrNoRows)
	}

	return nil
}

func (r *DetectionRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.DuplicateDetection, error) {
	query := squirrel.Select(detectionColumns...).
		From("duplicate_detections").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("detected_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// ListSince returns detections raised at or after since, oldest first.
func (r *DetectionRepository) ListSince(ctx context.Context, since time.Time) ([]*models.DuplicateDetection, error) {
	query := squirrel.Select(detectionColumns...).
		From("duplicate_detections").
		Where(squirrel.GtOrEq{"detected_at": since}).
		OrderBy("detected_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// DeleteDetectedBefore removes detections older than cutoff regardless of
// their review status and returns how many rows went.
func (r *DetectionRepository) DeleteDetectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := squirrel.Delete("duplicate_detections").
		Where(squirrel.Lt{"detected_at": cutoff}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, wrapErr("delete detections", err)
	}

	return tag.RowsAffected(), nil
}

func (r *DetectionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.DuplicateDetection, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapErr("list detections", err)
	}
	defer rows.Close()

	var detections []*models.DuplicateDetection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, wrapErr("scan detection", err)
		}
		detections = append(detections, d)
	}

	return detections, wrapErr("list detections", rows.Err())
}

func scanDetection(row pgx.Row) (*models.DuplicateDetection, error) {
	var d models.DuplicateDetection
	var data []byte
	if err := row.Scan(&d.ID, &d.Hash, &d.UserID, &data, &d.TransactionID, &d.DetectedAt, &d.Status); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d.DetectionData); err != nil {
			return nil, fmt.Errorf("unmarshal detection data: %w", err)
		}
	}
	return &d, nil
}
