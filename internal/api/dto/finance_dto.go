package dto

import "time"

// ConfirmPaymentRequest payload. FinalValue, when present, is checked
// against the server-side computation.
type ConfirmPaymentRequest struct {
	TicketNumber string   `json:"ticket_number"`
	FinalValue   *float64 `json:"final_value"`
	DiscountID   *string  `json:"discount_id"`
}

// PaymentResponse response.
type PaymentResponse struct {
	ID              string    `json:"id"`
	TicketID        string    `json:"ticket_id"`
	TicketNumber    string    `json:"ticket_number"`
	OriginalValue   float64   `json:"original_value"`
	FinalValue      float64   `json:"final_value"`
	DiscountApplied int       `json:"discount_applied"`
	ConfirmedBy     string    `json:"confirmed_by"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
}

// SettlementItemResponse is one row of the pending-settlement review.
type SettlementItemResponse struct {
	TicketNumber    string  `json:"ticket_number"`
	CreatorName     string  `json:"creator_name"`
	OriginalValue   float64 `json:"original_value"`
	FinalValue      float64 `json:"final_value"`
	DiscountPercent int     `json:"discount_percent"`
	ProofKey        *string `json:"proof_key,omitempty"`
}
