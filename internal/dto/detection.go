package dto

import (
	"time"

	"whatsapp-fx/internal/models"
	"whatsapp-fx/internal/service"
)

type PaymentProofResponse struct {
	Classification    string              `json:"classification"`
	MatchedRecordID   *string             `json:"matched_record_id,omitempty"`
	HammingDistance   *int                `json:"hamming_distance,omitempty"`
	CryptographicHash string              `json:"cryptographic_hash"`
	PerceptualHash    string              `json:"perceptual_hash"`
	HashRecordID      string              `json:"hash_record_id"`
	DetectionID       *string             `json:"detection_id,omitempty"`
	ImageURL          string              `json:"image_url"`
	Transition        *TransitionResponse `json:"transition,omitempty"`
}

func NewPaymentProofResponse(r *service.PaymentProofResult) PaymentProofResponse {
	d := r.Detection
	resp := PaymentProofResponse{
		Classification:    string(d.Classification),
		HammingDistance:   d.HammingDistance,
		CryptographicHash: d.CryptographicHash,
		PerceptualHash:    d.PerceptualHash,
		HashRecordID:      d.HashRecordID.String(),
		ImageURL:          r.ImageURL,
		Transition:        NewTransitionResponse(r.Transition),
	}
	if d.MatchedRecordID != nil {
		s := d.MatchedRecordID.String()
		resp.MatchedRecordID = &s
	}
	if d.DetectionID != nil {
		s := d.DetectionID.String()
		resp.DetectionID = &s
	}
	return resp
}

type UpdateDetectionRequest struct {
	Status string `json:"status"`
}

type DetectionResponse struct {
	ID            string               `json:"id"`
	Hash          string               `json:"hash"`
	UserID        string               `json:"user_id"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	DetectionData models.DetectionData `json:"detection_data"`
	DetectedAt    string               `json:"detected_at"`
	Status        string               `json:"status"`
}

func NewDetectionResponse(d *models.DuplicateDetection) DetectionResponse {
	resp := DetectionResponse{
		ID:            d.ID.String(),
		Hash:          d.Hash,
		UserID:        d.UserID.String(),
		DetectionData: d.DetectionData,
		DetectedAt:    d.DetectedAt.Format(time.RFC3339),
		Status:        string(d.Status),
	}
	if d.TransactionID != nil {
		s := d.TransactionID.String()
		resp.TransactionID = &s
	}
	return resp
}

type ErrorResponse struct {
	Error string `json:"error"`
}
