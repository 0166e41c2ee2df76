package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// TransferService runs the ownership-transfer workflow: owners request,
// admins decide, approval reassigns the ticket.
type TransferService struct {
	transfers  repository.TransferRepository
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TransferDependencies bundles what the transfer service needs.
type TransferDependencies struct {
	TransferRepo repository.TransferRepository
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTransferService constructs the service.
func NewTransferService(deps TransferDependencies) *TransferService {
	return &TransferService{
		transfers:  deps.TransferRepo,
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// TransferRequestInput describes a transfer request payload.
type TransferRequestInput struct {
	TicketID           string
	ProgressPercentage int
	ClientInfo         string
}

// Request opens a pending transfer for a ticket the caller owns. One
// pending request per ticket at a time.
func (s *TransferService) Request(ctx context.Context, actor *domain.User, input TransferRequestInput) (*domain.TransferRequest, error) {
	if input.TicketID == "" {
		return nil, apperrors.NewValidationError("ticket id required", nil)
	}
	if input.ProgressPercentage < 0 || input.ProgressPercentage > 100 {
		return nil, apperrors.NewValidationError("progress must be between 0 and 100",
			map[string]any{"progress": input.ProgressPercentage})
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": input.TicketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("only the current owner can request a transfer")
	}

	pending, err := s.transfers.HasPendingForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewConflict("ticket already has a pending transfer", map[string]any{"ticket_id": ticket.ID})
	}

	transfer := &domain.TransferRequest{
		TicketID:           ticket.ID,
		RequestedBy:        actor.ID,
		ProgressPercentage: input.ProgressPercentage,
		ClientInfo:         strings.TrimSpace(input.ClientInfo),
		Status:             domain.TransferStatusPending,
	}
	if err := s.transfers.Create(ctx, transfer); err != nil {
		// the partial unique index closes the check-then-insert race
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("ticket already has a pending transfer", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("transfer requested",
		zap.String("transfer_id", transfer.ID),
		zap.String("ticket_id", ticket.ID),
		zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventTransferRequested,
		Payload: events.TransferRequestedPayload{TransferID: transfer.ID, TicketID: ticket.ID},
	})
	return transfer, nil
}

// TransferDecisionInput describes an admin decision on a request.
type TransferDecisionInput struct {
	Approve    bool
	TransferTo string
	Reason     string
}

// Resolve closes a pending transfer. Approval requires a target user
// and reassigns ownership atomically; any re-decision of an already
// resolved request is a conflict.
func (s *TransferService) Resolve(ctx context.Context, actor *domain.User, transferID string, input TransferDecisionInput) (*domain.TransferRequest, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}

	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("transfer request", map[string]any{"id": transferID})
		}
		return nil, apperrors.MapError(err)
	}
	if transfer.Status != domain.TransferStatusPending {
		return nil, apperrors.NewConflict("transfer request already resolved",
			map[string]any{"id": transferID, "status": transfer.Status})
	}

	now := time.Now()
	transfer.ApprovedBy = &actor.ID
	transfer.ApprovedAt = &now
	if input.Reason != "" {
		reason := input.Reason
		transfer.Reason = &reason
	}

	if input.Approve {
		if input.TransferTo == "" {
			return nil, apperrors.NewValidationError("transfer target required for approval", nil)
		}
		target, err := s.users.GetByID(ctx, input.TransferTo)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("target user", map[string]any{"id": input.TransferTo})
			}
			return nil, apperrors.MapError(err)
		}
		if !target.IsActive {
			return nil, apperrors.NewValidationError("transfer target is inactive", map[string]any{"id": target.ID})
		}
		transfer.Status = domain.TransferStatusApproved
		transfer.TransferTo = &target.ID
	} else {
		transfer.Status = domain.TransferStatusRejected
	}

	if err := s.transfers.Resolve(ctx, transfer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// someone else resolved it first
			return nil, apperrors.NewConflict("transfer request already resolved", map[string]any{"id": transferID})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("transfer resolved",
		zap.String("transfer_id", transfer.ID),
		zap.String("status", string(transfer.Status)),
		zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type: events.EventTransferResolved,
		Payload: events.TransferResolvedPayload{
			TransferID: transfer.ID,
			TicketID:   transfer.TicketID,
			Status:     transfer.Status,
			TransferTo: transfer.TransferTo,
		},
	})
	return transfer, nil
}

// List returns transfer requests: all for admins, otherwise only the
// ones the caller requested or is the target of.
func (s *TransferService) List(ctx context.Context, actor *domain.User) ([]domain.TransferRequest, error) {
	var participant *string
	if actor.Role != domain.RoleAdmin {
		participant = &actor.ID
	}
	transfers, err := s.transfers.List(ctx, participant)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return transfers, nil
}

func (s *TransferService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	event.Actor = events.Actor{UserID: actor.ID, Username: actor.Username, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}
