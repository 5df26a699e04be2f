package models

import (
	"time"

	"github.com/google/uuid"
)

type DetectionStatus string

const (
	DetectionActive        DetectionStatus = "active"
	DetectionResolved      DetectionStatus = "resolved"
	DetectionFalsePositive DetectionStatus = "false_positive"
)

// ParseDetectionStatus accepts only the canonical detection statuses.
func ParseDetectionStatus(s string) (DetectionStatus, bool) {
	switch st := DetectionStatus(s); st {
	case DetectionActive, DetectionResolved, DetectionFalsePositive:
		return st, true
	}
	return "", false
}

// DetectionData is the evidence kept with a duplicate detection.
type DetectionData struct {
	MatchedRecordID  uuid.UUID       `json:"matched_record_id"`
	HashRecordID     uuid.UUID       `json:"hash_record_id"`
	HammingDistance  int             `json:"hamming_distance"`
	Method           DetectionMethod `json:"method"`
	Threshold        int             `json:"threshold"`
	PerceptualHash   string          `json:"perceptual_hash"`
	PaymentReference string          `json:"payment_reference,omitempty"`
}

type DuplicateDetection struct {
	ID            uuid.UUID       `db:"id"`
	Hash          string          `db:"hash"`
	UserID        uuid.UUID       `db:"user_id"`
	DetectionData DetectionData   `db:"detection_data"`
	TransactionID *uuid.UUID      `db:"transaction_id"`
	DetectedAt    time.Time       `db:"detected_at"`
	Status        DetectionStatus `db:"status"`
}
