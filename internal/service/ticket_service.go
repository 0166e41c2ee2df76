package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/repository"
	"github.com/stelaryous/ticketflow/internal/storage"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

const uniqueViolationCode = "23505"

// TicketService owns the ticket lifecycle: creation, status and payment
// transitions, visibility, and proof handling.
type TicketService struct {
	tickets        repository.TicketRepository
	catalog        repository.CatalogRepository
	discounts      repository.DiscountRepository
	store          storage.ObjectStore
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	proofNamespace string
}

// TicketDependencies bundles what the ticket service needs.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CatalogRepo    repository.CatalogRepository
	DiscountRepo   repository.DiscountRepository
	Store          storage.ObjectStore
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	ProofNamespace string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:        deps.TicketRepo,
		catalog:        deps.CatalogRepo,
		discounts:      deps.DiscountRepo,
		store:          deps.Store,
		dispatcher:     deps.Dispatcher,
		logger:         deps.Logger,
		proofNamespace: deps.ProofNamespace,
	}
}

// TicketCreateInput describes ticket creation payload. DiscountID nil
// means no discount; handlers translate the legacy "default" sentinel
// to nil before reaching here.
type TicketCreateInput struct {
	Number     string
	ServiceID  string
	Client     string
	Email      string
	StartDate  string
	DiscountID *string
	Proof      []byte
}

// TicketUpdateInput carries the optional mutations of an update call.
type TicketUpdateInput struct {
	Status     *domain.TicketStatus
	Payment    *domain.PaymentStatus
	DiscountID *string
}

// Create registers a new ticket. The end date is derived once from the
// service due-day offset and never recomputed afterwards.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if input.Number == "" || input.ServiceID == "" || input.Client == "" || input.Email == "" || input.StartDate == "" {
		return nil, apperrors.NewValidationError("number, service, client, email and start date are required", nil)
	}

	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid start date", map[string]any{"start_date": input.StartDate})
	}

	exists, err := s.tickets.ExistsByNumber(ctx, input.Number)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		s.logger.Warn("duplicate ticket rejected",
			zap.String("number", input.Number),
			zap.String("by", actor.Username))
		return nil, apperrors.NewConflict("ticket already exists", map[string]any{"number": input.Number})
	}

	svc, err := s.catalog.GetServiceByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service", map[string]any{"id": input.ServiceID})
		}
		return nil, apperrors.MapError(err)
	}

	var discountID *string
	if input.DiscountID != nil {
		discount, err := s.discounts.GetByID(ctx, *input.DiscountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("discount", map[string]any{"id": *input.DiscountID})
			}
			return nil, apperrors.MapError(err)
		}
		discountID = &discount.ID
	}

	var proofKey *string
	if len(input.Proof) > 0 {
		normalized, err := storage.NormalizeImage(input.Proof)
		if err != nil {
			return nil, apperrors.NewValidationError("proof is not a readable image", nil)
		}
		key := storage.ProofKey(s.proofNamespace, actor.Username, input.Number)
		if err := s.store.Put(ctx, key, normalized, storage.ProofContentType); err != nil {
			return nil, apperrors.MapError(err)
		}
		proofKey = &key
	}

	ticket := &domain.Ticket{
		Number:     input.Number,
		ServiceID:  svc.ID,
		Client:     strings.TrimSpace(input.Client),
		Email:      strings.TrimSpace(input.Email),
		StartDate:  startDate,
		EndDate:    startDate.AddDate(0, 0, svc.DueDays),
		Status:     domain.TicketStatusInProgress,
		Payment:    domain.PaymentStatusPending,
		ProofKey:   proofKey,
		DiscountID: discountID,
		CreatedBy:  actor.ID,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// the unique index closes the check-then-insert race
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("ticket already exists", map[string]any{"number": input.Number})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created", zap.String("number", ticket.Number), zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type: events.EventTicketCreated,
		Payload: events.TicketCreatedPayload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			ServiceID:    ticket.ServiceID,
			HasProof:     proofKey != nil,
		},
	})
	return ticket, nil
}

// Update applies status, payment and discount changes. Status moves are
// open to every role; payment moves are restricted to admin and
// financeiro. Tokens outside the two-state enumerations are rejected,
// including the legacy `pendente` status some old clients still send.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	oldStatus, oldPayment := ticket.Status, ticket.Payment

	if input.Status != nil {
		if !domain.ValidTicketStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid ticket status", map[string]any{"status": *input.Status})
		}
		ticket.Status = *input.Status
	}

	if input.Payment != nil {
		if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro {
			return nil, apperrors.NewForbidden("payment updates require admin or financeiro")
		}
		if !domain.ValidPaymentStatus(*input.Payment) {
			return nil, apperrors.NewValidationError("invalid payment status", map[string]any{"payment": *input.Payment})
		}
		ticket.Payment = *input.Payment
	}

	if input.DiscountID != nil {
		discount, err := s.discounts.GetByID(ctx, *input.DiscountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("discount", map[string]any{"id": *input.DiscountID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.DiscountID = &discount.ID
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, actor, events.Event{
		Type: events.EventTicketUpdated,
		Payload: events.TicketUpdatedPayload{
			TicketID:   ticket.ID,
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
			OldPayment: oldPayment,
			NewPayment: ticket.Payment,
		},
	})
	return ticket, nil
}

// Hide soft-deletes a ticket. Only the creator or an admin may hide;
// hidden tickets stay addressable by id for audit.
func (s *TicketService) Hide(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return apperrors.MapError(err)
	}

	if actor.Role != domain.RoleAdmin && ticket.CreatedBy != actor.ID {
		return apperrors.NewForbidden("only the creator or an admin can hide a ticket")
	}

	ticket.IsHidden = true
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	s.logger.Info("ticket hidden", zap.String("ticket_id", ticket.ID), zap.String("by", actor.Username))
	s.publishEvent(ctx, actor, events.Event{
		Type:    events.EventTicketHidden,
		Payload: events.TicketHiddenPayload{TicketID: ticket.ID},
	})
	return nil
}

// List returns non-hidden tickets: all of them for admin and
// financeiro, only the caller's own otherwise.
func (s *TicketService) List(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro {
		filter.CreatedBy = &actor.ID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Get fetches a ticket by id. Hidden tickets remain reachable here;
// plain users may only fetch their own.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleFinanceiro && ticket.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetProof streams a stored proof after checking the caller may see it.
func (s *TicketService) GetProof(ctx context.Context, actor *domain.User, key string) ([]byte, string, error) {
	if err := s.authorizeProofAccess(ctx, actor, key); err != nil {
		return nil, "", err
	}
	data, contentType, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}
	return data, contentType, nil
}

// ProofURL returns a presigned download URL for a stored proof.
func (s *TicketService) ProofURL(ctx context.Context, actor *domain.User, key string) (string, error) {
	if err := s.authorizeProofAccess(ctx, actor, key); err != nil {
		return "", err
	}
	url, err := s.store.PresignedURL(ctx, key)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return url, nil
}

func (s *TicketService) authorizeProofAccess(ctx context.Context, actor *domain.User, key string) error {
	ticket, err := s.tickets.GetByProofKey(ctx, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("proof", map[string]any{"key": key})
		}
		return apperrors.MapError(err)
	}
	if actor.Role != domain.RoleAdmin && ticket.CreatedBy != actor.ID {
		return apperrors.NewForbidden("access denied")
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, actor *domain.User, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now()
	event.Actor = events.Actor{UserID: actor.ID, Username: actor.Username, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unparseable date")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
