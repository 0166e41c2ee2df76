package dto

import (
	"time"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// UpdateTicketRequest payload. All fields are optional; absent fields
// leave the ticket untouched.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus  `json:"status"`
	Payment    *domain.PaymentStatus `json:"payment"`
	DiscountID *string               `json:"discount_id"`
}

// TicketResponse response.
type TicketResponse struct {
	ID         string               `json:"id"`
	Number     string               `json:"number"`
	ServiceID  string               `json:"service_id"`
	Client     string               `json:"client"`
	Email      string               `json:"email"`
	StartDate  time.Time            `json:"start_date"`
	EndDate    time.Time            `json:"end_date"`
	Status     domain.TicketStatus  `json:"status"`
	Payment    domain.PaymentStatus `json:"payment"`
	ProofKey   *string              `json:"proof_key,omitempty"`
	DiscountID *string              `json:"discount_id,omitempty"`
	CreatedBy  string               `json:"created_by"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ProofURLResponse response.
type ProofURLResponse struct {
	URL string `json:"url"`
}
