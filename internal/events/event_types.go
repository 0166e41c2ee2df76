package events

import (
	"time"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketUpdated     EventType = "ticket_updated"
	EventTicketHidden      EventType = "ticket_hidden"
	EventPaymentConfirmed  EventType = "payment_confirmed"
	EventTransferRequested EventType = "transfer_requested"
	EventTransferResolved  EventType = "transfer_resolved"
	EventUserRegistered    EventType = "user_registered"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID     string `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	ServiceID    string `json:"service_id"`
	HasProof     bool   `json:"has_proof"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	TicketID   string               `json:"ticket_id"`
	OldStatus  domain.TicketStatus  `json:"old_status"`
	NewStatus  domain.TicketStatus  `json:"new_status"`
	OldPayment domain.PaymentStatus `json:"old_payment"`
	NewPayment domain.PaymentStatus `json:"new_payment"`
}

// TicketHiddenPayload payload.
type TicketHiddenPayload struct {
	TicketID string `json:"ticket_id"`
}

// PaymentConfirmedPayload payload.
type PaymentConfirmedPayload struct {
	PaymentID       string  `json:"payment_id"`
	TicketNumber    string  `json:"ticket_number"`
	FinalValue      float64 `json:"final_value"`
	DiscountApplied int     `json:"discount_applied"`
}

// TransferRequestedPayload payload.
type TransferRequestedPayload struct {
	TransferID string `json:"transfer_id"`
	TicketID   string `json:"ticket_id"`
}

// TransferResolvedPayload payload.
type TransferResolvedPayload struct {
	TransferID string                `json:"transfer_id"`
	TicketID   string                `json:"ticket_id"`
	Status     domain.TransferStatus `json:"status"`
	TransferTo *string               `json:"transfer_to,omitempty"`
}

// UserRegisteredPayload carries the provisional credential for
// delivery. It never leaves the in-process dispatcher.
type UserRegisteredPayload struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"-"`
}
