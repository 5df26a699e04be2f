package dto

import (
	"time"

	"whatsapp-fx/internal/models"
)

type RegisterContactRequest struct {
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
}

type ContactResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func NewContactResponse(u *models.User) ContactResponse {
	return ContactResponse{
		ID:          u.ID.String(),
		PhoneNumber: u.PhoneNumber,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
