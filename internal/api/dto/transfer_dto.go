package dto

import (
	"time"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// CreateTransferRequest payload.
type CreateTransferRequest struct {
	TicketID           string `json:"ticket_id"`
	ProgressPercentage int    `json:"progress_percentage"`
	ClientInfo         string `json:"client_info"`
}

// ResolveTransferRequest payload.
type ResolveTransferRequest struct {
	Approve    bool   `json:"approve"`
	TransferTo string `json:"transfer_to"`
	Reason     string `json:"reason"`
}

// TransferResponse response.
type TransferResponse struct {
	ID                 string                `json:"id"`
	TicketID           string                `json:"ticket_id"`
	RequestedBy        string                `json:"requested_by"`
	TransferTo         *string               `json:"transfer_to,omitempty"`
	ProgressPercentage int                   `json:"progress_percentage"`
	ClientInfo         string                `json:"client_info"`
	Status             domain.TransferStatus `json:"status"`
	ApprovedBy         *string               `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time            `json:"approved_at,omitempty"`
	Reason             *string               `json:"reason,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}
