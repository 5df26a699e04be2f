package service

import (
	"context"
	"errors"
	"time"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContactService keeps the user directory that settlement notifications
// are addressed from.
type ContactService struct {
	users  ContactStore
	logger *zap.Logger
	now    func() time.Time
}

func NewContactService(users ContactStore, logger *zap.Logger) *ContactService {
	return &ContactService{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterContact returns the user owning phone, creating it on first
// contact. The bool reports whether a new user was created.
func (s *ContactService) RegisterContact(ctx context.Context, phone, displayName string) (*models.User, bool, error) {
	number := notify.NormalizeNumber(phone)
	if len(number) < 8 || len(number) > 15 {
		return nil, false, common.InvalidInput("phone number %q is not a WhatsApp number", phone)
	}

	existing, err := s.users.GetByPhoneNumber(ctx, number)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, false, err
	}

	now := s.now()
	user := &models.User{
		ID:          uuid.New(),
		PhoneNumber: number,
		DisplayName: cleanText(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, err
	}

	s.logger.Info("Contact registered", zap.String("user_id", user.ID.String()))
	return user, true, nil
}

func (s *ContactService) GetContact(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
