package service

import (
	"context"
	"time"

	"whatsapp-fx/internal/imagehash"
	"whatsapp-fx/internal/models"

	"github.com/google/uuid"
)

// ImageHashStore is the duplicate index over submitted payment proofs.
type ImageHashStore interface {
	// RecordSubmission commits the hash record, the optional detection and
	// the optional receipt attachment together or not at all.
	RecordSubmission(ctx context.Context, rec *models.ImageHashRecord, detection *models.DuplicateDetection, receipt *models.ReceiptAttachment) error
	GetByCryptographicHash(ctx context.Context, hash string) (*models.ImageHashRecord, error)
	// ScanAll is the single unindexed similarity source; see
	// repository.ImageHashRepository.ScanAll.
	ScanAll(ctx context.Context) ([]*models.ImageHashRecord, error)
}

type DetectionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.DuplicateDetection, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.DetectionStatus) error
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.DuplicateDetection, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.DuplicateDetection, error)
	DeleteDetectedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.TransactionStatus) (bool, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

// ContactDirectory resolves the messaging address of a user.
type ContactDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ContactStore interface {
	ContactDirectory
	Create(ctx context.Context, user *models.User) error
	GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error)
}

type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

type HashComputer interface {
	Compute(data []byte) (imagehash.Hashes, error)
}
