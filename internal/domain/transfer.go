package domain

import "time"

// TransferStatus enumerates transfer request states. Pending is the
// only non-terminal state.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
	TransferStatusRejected TransferStatus = "rejected"
)

// TransferRequest asks for a ticket's ownership to be reassigned to
// another operator. At most one pending request may exist per ticket.
type TransferRequest struct {
	ID                 string
	TicketID           string
	RequestedBy        string
	TransferTo         *string
	ProgressPercentage int
	ClientInfo         string
	Status             TransferStatus
	ApprovedBy         *string
	ApprovedAt         *time.Time
	Reason             *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
