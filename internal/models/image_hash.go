package models

import (
	"time"

	"github.com/google/uuid"
)

type DetectionMethod string

const (
	MethodExact      DetectionMethod = "exact"
	MethodPerceptual DetectionMethod = "perceptual"
	MethodNone       DetectionMethod = "none"
)

type ImageMetadata struct {
	ImageSize        int64           `json:"image_size"`
	FileName         string          `json:"file_name,omitempty"`
	MimeType         string          `json:"mime_type,omitempty"`
	ProcessingTimeMS int64           `json:"processing_time_ms"`
	DetectionMethod  DetectionMethod `json:"detection_method"`
	ThresholdUsed    int             `json:"threshold_used"`
}

// ImageHashRecord is written once per submitted image and never updated.
type ImageHashRecord struct {
	ID                uuid.UUID     `db:"id"`
	CryptographicHash string        `db:"cryptographic_hash"`
	PerceptualHash    string        `db:"perceptual_hash"`
	ImageURL          string        `db:"image_url"`
	TransactionID     *uuid.UUID    `db:"transaction_id"`
	PaymentReference  *string       `db:"payment_reference"`
	UserID            *uuid.UUID    `db:"user_id"`
	MessageID         *string       `db:"message_id"`
	Metadata          ImageMetadata `db:"metadata"`
	CreatedAt         time.Time     `db:"created_at"`
}
