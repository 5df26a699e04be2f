package repository

import (
	"context"

	"whatsapp-fx/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := squirrel.Insert("users").
		Columns("id", "phone_number", "display_name", "created_at", "updated_at").
		Values(user.ID, user.PhoneNumber, user.DisplayName, user.CreatedAt, user.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return wrapErr("create user", err)
}

func (r *UserRepository) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, "get user by phone", squirrel.Eq{"phone_number": phone})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, "get user", squirrel.Eq{"id": id})
}

func (r *UserRepository) getOne(ctx context.Context, op string, where squirrel.Eq) (*models.User, error) {
	query := squirrel.Select("id", "phone_number", "display_name", "created_at", "updated_at").
		From("users").
		Where(where).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.ID, &user.PhoneNumber, &user.DisplayName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(op, err)
	}

	return &user, nil
}
