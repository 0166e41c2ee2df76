package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// valueTolerance absorbs float representation noise when comparing a
// client-submitted final value against the server-side computation.
const valueTolerance = 0.01

// PaymentService settles finalized tickets: it snapshots the discounted
// value into an immutable payment record and flips the ticket to
// payment complete.
type PaymentService struct {
	payments   repository.PaymentRepository
	tickets    repository.TicketRepository
	catalog    repository.CatalogRepository
	discounts  repository.DiscountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// PaymentDependencies bundles what the payment service needs.
type PaymentDependencies struct {
	PaymentRepo  repository.PaymentRepository
	TicketRepo   repository.TicketRepository
	CatalogRepo  repository.CatalogRepository
	DiscountRepo repository.DiscountRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	return &PaymentService{
		payments:   deps.PaymentRepo,
		tickets:    deps.TicketRepo,
		catalog:    deps.CatalogRepo,
		discounts:  deps.DiscountRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ConfirmInput describes a settlement confirmation. FinalValue, when
// non-nil, is the figure the confirming operator saw on screen and must
// match the server-side computation. DiscountID, when non-nil,
// overrides the discount recorded on the ticket.
type ConfirmInput struct {
	TicketNumber string
	FinalValue   *float64
	DiscountID   *string
}

// Confirm settles one ticket by number. The effective discount is the
// override if given, else whatever the ticket carries; the percentage
// in force at confirmation time is frozen into the payment record.
func (s *PaymentService) Confirm(ctx context.Context, actor *domain.User, input ConfirmInput) (*domain.Payment, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro {
		return nil, apperrors.NewForbidden("payment confirmation requires admin or financeiro")
	}
	if input.TicketNumber == "" {
		return nil, apperrors.NewValidationError("ticket number required", nil)
	}

	ticket, err := s.tickets.GetByNumber(ctx, input.TicketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"number": input.TicketNumber})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Payment == domain.PaymentStatusComplete {
		return nil, apperrors.NewConflict("ticket already settled", map[string]any{"number": ticket.Number})
	}

	svc, err := s.catalog.GetServiceByID(ctx, ticket.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": ticket.ServiceID})
		}
		return nil, apperrors.MapError(err)
	}

	effectiveDiscountID := ticket.DiscountID
	if input.DiscountID != nil {
		effectiveDiscountID = input.DiscountID
	}

	var discount *domain.Discount
	if effectiveDiscountID != nil {
		discount, err = s.discounts.GetByID(ctx, *effectiveDiscountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("discount", map[string]any{"id": *effectiveDiscountID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	finalValue := FinalValue(svc.Value, discount)
	if input.FinalValue != nil && math.Abs(*input.FinalValue-finalValue) > valueTolerance {
		return nil, apperrors.NewValidationError("final value does not match the computed settlement",
			map[string]any{"submitted": *input.FinalValue, "computed": finalValue})
	}

	payment := &domain.Payment{
		TicketID:      ticket.ID,
		TicketNumber:  ticket.Number,
		OriginalValue: svc.Value,
		FinalValue:    finalValue,
		ConfirmedBy:   actor.ID,
	}
	if discount != nil {
		payment.DiscountApplied = discount.Percentage
	}

	if err := s.payments.Confirm(ctx, payment, input.DiscountID); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("payment confirmed",
		zap.String("ticket_number", ticket.Number),
		zap.Float64("final_value", finalValue),
		zap.Int("discount_applied", payment.DiscountApplied),
		zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type: events.EventPaymentConfirmed,
		Payload: events.PaymentConfirmedPayload{
			PaymentID:       payment.ID,
			TicketNumber:    payment.TicketNumber,
			FinalValue:      payment.FinalValue,
			DiscountApplied: payment.DiscountApplied,
		},
	})
	return payment, nil
}

// SettlementItem is one row of the pending-settlement review list.
type SettlementItem struct {
	TicketNumber    string
	CreatorName     string
	OriginalValue   float64
	FinalValue      float64
	DiscountPercent int
	ProofKey        *string
}

// ListPendingSettlement returns the finalized-but-unpaid tickets with
// their discounted values computed.
func (s *PaymentService) ListPendingSettlement(ctx context.Context, actor *domain.User) ([]SettlementItem, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro {
		return nil, apperrors.NewForbidden("settlement review requires admin or financeiro")
	}

	rows, err := s.tickets.ListPendingSettlement(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	items := make([]SettlementItem, 0, len(rows))
	for _, row := range rows {
		item := SettlementItem{
			TicketNumber:  row.TicketNumber,
			CreatorName:   row.CreatorName,
			OriginalValue: row.ServiceValue,
			FinalValue:    row.ServiceValue,
			ProofKey:      row.ProofKey,
		}
		if row.DiscountPercent != nil {
			item.DiscountPercent = *row.DiscountPercent
			item.FinalValue = row.ServiceValue * (1 - float64(*row.DiscountPercent)/100)
		}
		items = append(items, item)
	}
	return items, nil
}

// History returns the payment records written against a ticket.
func (s *PaymentService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Payment, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro {
		return nil, apperrors.NewForbidden("payment history requires admin or financeiro")
	}
	payments, err := s.payments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

func (s *PaymentService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	event.Actor = events.Actor{UserID: actor.ID, Username: actor.Username, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}
