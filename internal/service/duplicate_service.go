package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"whatsapp-fx/internal/common"
	"whatsapp-fx/internal/imagehash"
	"whatsapp-fx/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Classification string

const (
	ClassificationExact Classification = "EXACT_DUPLICATE"
	ClassificationNear  Classification = "NEAR_DUPLICATE"
	ClassificationClean Classification = "CLEAN"
)

// IsDuplicate reports whether the classification raised a detection.
func (c Classification) IsDuplicate() bool {
	return c == ClassificationExact || c == ClassificationNear
}

// Submission is one payment-proof image with its precomputed hashes and
// the conversation context it arrived in.
type Submission struct {
	Hashes           imagehash.Hashes
	UserID           uuid.UUID
	TransactionID    *uuid.UUID
	PaymentReference string
	MessageID        string
	ImageURL         string
	Metadata         models.ImageMetadata
}

type DetectionResult struct {
	Classification    Classification
	MatchedRecordID   *uuid.UUID
	HammingDistance   *int
	CryptographicHash string
	PerceptualHash    string
	HashRecordID      uuid.UUID
	DetectionID       *uuid.UUID
}

// DuplicateService classifies payment proofs against the hash index. It
// keeps no state between calls and never blocks a transaction itself:
// acting on a classification is up to the caller.
type DuplicateService struct {
	hashes     ImageHashStore
	detections DetectionStore
	logger     *zap.Logger
	now        func() time.Time
}

func NewDuplicateService(hashes ImageHashStore, detections DetectionStore, logger *zap.Logger) *DuplicateService {
	return &DuplicateService{
		hashes:     hashes,
		detections: detections,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmissionPlan is a classified submission with the records that persist
// it. Nothing in it has been written yet.
type SubmissionPlan struct {
	Result    *DetectionResult
	Record    *models.ImageHashRecord
	Detection *models.DuplicateDetection
	threshold int
}

// Check classifies a submission and records it. The hash record is always
// written so later submissions compare against it; a detection record is
// added for exact and near duplicates. Malformed input fails closed and a
// storage error aborts the whole check with nothing written.
func (s *DuplicateService) Check(ctx context.Context, sub Submission, threshold int) (*DetectionResult, error) {
	plan, err := s.Classify(ctx, sub, threshold)
	if err != nil {
		return nil, err
	}
	if err := s.Record(ctx, plan, nil); err != nil {
		return nil, err
	}
	return plan.Result, nil
}

// Classify runs the exact lookup and the similarity scan and builds the
// records Record will write. It writes nothing.
func (s *DuplicateService) Classify(ctx context.Context, sub Submission, threshold int) (*SubmissionPlan, error) {
	started := s.now()

	if threshold < 0 {
		return nil, common.InvalidInput("hamming threshold %d is negative", threshold)
	}
	if sub.UserID == uuid.Nil {
		return nil, common.InvalidInput("user id is required")
	}
	if err := sub.Hashes.Validate(); err != nil {
		return nil, common.InvalidInputErr(err)
	}

	classification, match, distance, err := s.classify(ctx, sub.Hashes, threshold)
	if err != nil {
		return nil, err
	}

	method := models.MethodNone
	switch classification {
	case ClassificationExact:
		method = models.MethodExact
	case ClassificationNear:
		method = models.MethodPerceptual
	}

	now := s.now()
	meta := sub.Metadata
	meta.DetectionMethod = method
	meta.ThresholdUsed = threshold
	meta.ProcessingTimeMS = now.Sub(started).Milliseconds()

	record := &models.ImageHashRecord{
		ID:                uuid.New(),
		CryptographicHash: sub.Hashes.Cryptographic,
		PerceptualHash:    sub.Hashes.Perceptual,
		ImageURL:          sub.ImageURL,
		TransactionID:     sub.TransactionID,
		PaymentReference:  optionalString(sub.PaymentReference),
		UserID:            &sub.UserID,
		MessageID:         optionalString(sub.MessageID),
		Metadata:          meta,
		CreatedAt:         now,
	}

	plan := &SubmissionPlan{
		Result: &DetectionResult{
			Classification:    classification,
			CryptographicHash: sub.Hashes.Cryptographic,
			PerceptualHash:    sub.Hashes.Perceptual,
			HashRecordID:      record.ID,
		},
		Record:    record,
		threshold: threshold,
	}

	if !classification.IsDuplicate() {
		return plan, nil
	}

	plan.Result.MatchedRecordID = &match.ID
	plan.Result.HammingDistance = &distance

	plan.Detection = &models.DuplicateDetection{
		ID:     uuid.New(),
		Hash:   sub.Hashes.Cryptographic,
		UserID: sub.UserID,
		DetectionData: models.DetectionData{
			MatchedRecordID:  match.ID,
			HashRecordID:     record.ID,
			HammingDistance:  distance,
			Method:           method,
			Threshold:        threshold,
			PerceptualHash:   sub.Hashes.Perceptual,
			PaymentReference: sub.PaymentReference,
		},
		TransactionID: sub.TransactionID,
		DetectedAt:    now,
		Status:        models.DetectionActive,
	}
	plan.Result.DetectionID = &plan.Detection.ID

	return plan, nil
}

// Record persists a plan in one write, together with receipt when the proof
// is attached to a transaction. On error nothing of the plan is stored. Like
// the scan, the write does not follow request cancellation: a classified
// proof is indexed even if the caller has gone away.
func (s *DuplicateService) Record(ctx context.Context, plan *SubmissionPlan, receipt *models.ReceiptAttachment) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.hashes.RecordSubmission(ctx, plan.Record, plan.Detection, receipt); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}

	result := plan.Result
	userID := plan.Record.UserID.String()

	if plan.Detection == nil {
		s.logger.Info("Payment proof is clean",
			zap.String("user_id", userID),
			zap.String("hash_record_id", plan.Record.ID.String()),
		)
		return nil
	}

	s.logger.Warn("Duplicate payment proof detected",
		zap.String("classification", string(result.Classification)),
		zap.String("user_id", userID),
		zap.String("matched_record_id", result.MatchedRecordID.String()),
		zap.Int("hamming_distance", *result.HammingDistance),
		zap.Int("threshold", plan.threshold),
	)

	return nil
}

func (s *DuplicateService) classify(ctx context.Context, h imagehash.Hashes, threshold int) (Classification, *models.ImageHashRecord, int, error) {
	exact, err := s.hashes.GetByCryptographicHash(ctx, h.Cryptographic)
	switch {
	case err == nil:
		return ClassificationExact, exact, 0, nil
	case !errors.Is(err, common.ErrNotFound):
		return "", nil, 0, fmt.Errorf("exact lookup: %w", err)
	}

	match, distance, err := s.scanNearest(ctx, h.Perceptual, threshold)
	if err != nil {
		return "", nil, 0, err
	}
	if match == nil {
		return ClassificationClean, nil, 0, nil
	}
	return ClassificationNear, match, distance, nil
}

type scanResult struct {
	match    *models.ImageHashRecord
	distance int
	err      error
}

// scanNearest runs the full-index comparison on its own goroutine. The scan
// is detached from request cancellation and always awaited: a partial scan
// cannot tell a clean image from an unchecked one.
func (s *DuplicateService) scanNearest(ctx context.Context, perceptual string, threshold int) (*models.ImageHashRecord, int, error) {
	done := make(chan scanResult, 1)
	scanCtx := context.WithoutCancel(ctx)

	go func() {
		records, err := s.hashes.ScanAll(scanCtx)
		if err != nil {
			done <- scanResult{err: fmt.Errorf("similarity scan: %w", err)}
			return
		}
		match, distance, err := NearestMatch(perceptual, records, threshold)
		done <- scanResult{match: match, distance: distance, err: err}
	}()

	res := <-done
	return res.match, res.distance, res.err
}

// NearestMatch returns the stored record closest to perceptual among those
// with 0 < distance <= threshold. Ties go to the earliest created record,
// then the smaller id. A stored fingerprint of another width is an input
// error for the whole comparison.
func NearestMatch(perceptual string, records []*models.ImageHashRecord, threshold int) (*models.ImageHashRecord, int, error) {
	type candidate struct {
		rec      *models.ImageHashRecord
		distance int
	}

	var candidates []candidate
	for _, rec := range records {
		d, err := imagehash.Hamming(perceptual, rec.PerceptualHash)
		if err != nil {
			return nil, 0, common.InvalidInputErr(fmt.Errorf("compare with record %s: %w", rec.ID, err))
		}
		if d > 0 && d <= threshold {
			candidates = append(candidates, candidate{rec: rec, distance: d})
		}
	}

	if len(candidates) == 0 {
		return nil, 0, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.Before(b.rec.CreatedAt)
		}
		return bytes.Compare(a.rec.ID[:], b.rec.ID[:]) < 0
	})

	return candidates[0].rec, candidates[0].distance, nil
}

// ResolveDetection records a reviewer's verdict on a detection.
func (s *DuplicateService) ResolveDetection(ctx context.Context, id uuid.UUID, status models.DetectionStatus) (*models.DuplicateDetection, error) {
	if status != models.DetectionResolved && status != models.DetectionFalsePositive {
		return nil, common.InvalidInput("detection can only be marked %s or %s, got %q",
			models.DetectionResolved, models.DetectionFalsePositive, status)
	}

	if err := s.detections.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Duplicate detection reviewed",
		zap.String("detection_id", id.String()),
		zap.String("status", string(status)),
	)

	return s.detections.GetByID(ctx, id)
}

func (s *DuplicateService) ListDetections(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.DuplicateDetection, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.detections.ListByUserID(ctx, userID, limit, offset)
}

// CleanupStaleDetections deletes detections older than maxAge.
func (s *DuplicateService) CleanupStaleDetections(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, common.InvalidInput("retention age must be positive, got %s", maxAge)
	}

	cutoff := s.now().Add(-maxAge)
	deleted, err := s.detections.DeleteDetectedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Stale duplicate detections removed",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)

	return deleted, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
