package domain

import "time"

// TicketStatus enumerates ticket lifecycle states.
type TicketStatus string

const (
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusFinalized  TicketStatus = "finalized"
)

// ValidTicketStatus reports whether the token is one of the two
// persisted states. The legacy `pendente` token some old clients send
// is not accepted.
func ValidTicketStatus(value TicketStatus) bool {
	return value == TicketStatusInProgress || value == TicketStatusFinalized
}

// PaymentStatus enumerates settlement states of a ticket.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusComplete PaymentStatus = "complete"
)

// ValidPaymentStatus reports whether the token is a known payment state.
func ValidPaymentStatus(value PaymentStatus) bool {
	return value == PaymentStatusPending || value == PaymentStatusComplete
}

// Ticket is a trackable unit of service delivery. Number is the
// immutable business key; EndDate is derived once at creation from the
// service due-date offset and never recomputed. Tickets are hidden,
// never deleted.
type Ticket struct {
	ID         string
	Number     string
	ServiceID  string
	Client     string
	Email      string
	StartDate  time.Time
	EndDate    time.Time
	Status     TicketStatus
	Payment    PaymentStatus
	ProofKey   *string
	DiscountID *string
	CreatedBy  string
	IsHidden   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
