package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/imagehash"
	"whatsapp-fx/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentProofInput struct {
	UserID           uuid.UUID
	TransactionID    *uuid.UUID
	Image            []byte
	FileName         string
	MimeType         string
	PaymentReference string
	MessageID        string
	// Threshold overrides the configured Hamming threshold when set.
	Threshold *int
}

type PaymentProofResult struct {
	Detection  *DetectionResult
	ImageURL   string
	Transition *TransitionResult
}

// PaymentProofService is the entry point for an inbound payment-proof
// image: it stores the file, runs duplicate detection and attaches the
// receipt to the transaction.
type PaymentProofService struct {
	hasher           HashComputer
	detector         *DuplicateService
	settlement       *SettlementService
	uploadDir        string
	defaultThreshold int
	logger           *zap.Logger
}

func NewPaymentProofService(
	hasher HashComputer,
	detector *DuplicateService,
	settlement *SettlementService,
	uploadDir string,
	defaultThreshold int,
	logger *zap.Logger,
) *PaymentProofService {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.Error(err))
	}

	return &PaymentProofService{
		hasher:           hasher,
		detector:         detector,
		settlement:       settlement,
		uploadDir:        uploadDir,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// SubmitPaymentProof hashes and classifies the image. When a transaction is
// named, the receipt is attached and the transaction moves to review
// whatever the classification was; the reviewer sees the classification.
// A settled transaction keeps the receipt it was settled on. The hash
// record, the detection and the attachment are written together: on any
// error none of them is stored and the uploaded file is removed.
func (s *PaymentProofService) SubmitPaymentProof(ctx context.Context, in PaymentProofInput) (*PaymentProofResult, error) {
	if in.UserID == uuid.Nil {
		return nil, common.InvalidInput("user id is required")
	}

	reference := cleanText(in.PaymentReference)
	fileName := cleanText(in.FileName)

	threshold := s.defaultThreshold
	if in.Threshold != nil {
		threshold = *in.Threshold
	}

	hashes, err := s.hasher.Compute(in.Image)
	if err != nil {
		if errors.Is(err, imagehash.ErrUndecodableImage) {
			return nil, common.InvalidInputErr(err)
		}
		return nil, fmt.Errorf("compute image hashes: %w", err)
	}

	var tx *models.Transaction
	if in.TransactionID != nil {
		tx, err = s.settlement.GetTransaction(ctx, *in.TransactionID)
		if err != nil {
			return nil, err
		}
		if tx.UserID != in.UserID {
			return nil, common.InvalidInput("transaction %s does not belong to user %s", tx.ID, in.UserID)
		}
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(in.Image)
	}

	imageURL, filePath, err := s.store(in.Image, fileName, mimeType)
	if err != nil {
		return nil, err
	}

	plan, err := s.detector.Classify(ctx, Submission{
		Hashes:           hashes,
		UserID:           in.UserID,
		TransactionID:    in.TransactionID,
		PaymentReference: reference,
		MessageID:        cleanText(in.MessageID),
		ImageURL:         imageURL,
		Metadata: models.ImageMetadata{
			ImageSize: int64(len(in.Image)),
			FileName:  fileName,
			MimeType:  mimeType,
		},
	}, threshold)
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}

	transition, err := s.record(ctx, plan, tx, imageURL, reference)
	if err != nil {
		os.Remove(filePath)
		return nil, err
	}

	result := &PaymentProofResult{Detection: plan.Result, ImageURL: imageURL, Transition: transition}
	if tx == nil {
		return result, nil
	}

	if transition.Applied {
		s.logger.Info("Payment proof attached",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("classification", string(plan.Result.Classification)),
			zap.String("status", string(transition.NewStatus)),
		)
	} else {
		s.logger.Info("Payment proof recorded, transaction status unchanged",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("classification", string(plan.Result.Classification)),
			zap.String("status", string(transition.NewStatus)),
		)
	}

	return result, nil
}

// record writes the plan and, for a named transaction, the receipt
// attachment. If the transaction status moved between the read and the
// write, it re-reads once and plans the attachment again.
func (s *PaymentProofService) record(ctx context.Context, plan *SubmissionPlan, tx *models.Transaction, imageURL, reference string) (*TransitionResult, error) {
	if tx == nil {
		return nil, s.detector.Record(ctx, plan, nil)
	}

	const attempts = 2

	for attempt := 1; ; attempt++ {
		receipt, transition, err := s.settlement.AttachReceipt(tx, imageURL, reference)
		if err != nil {
			return nil, err
		}

		err = s.detector.Record(ctx, plan, receipt)
		if err == nil {
			return transition, nil
		}
		if !errors.Is(err, common.ErrStaleStatus) {
			return nil, err
		}
		if attempt == attempts {
			return nil, fmt.Errorf("transaction %s changed concurrently: %w: %w", tx.ID, common.ErrStorageUnavailable, err)
		}

		if tx, err = s.settlement.GetTransaction(ctx, tx.ID); err != nil {
			return nil, err
		}
	}
}

func (s *PaymentProofService) store(data []byte, fileName, mimeType string) (url, path string, err error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = extensionFor(mimeType)
	}
	name := uuid.New().String() + ext
	path = filepath.Join(s.uploadDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save payment proof: %w", err)
	}

	return "/uploads/" + name, path, nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}
