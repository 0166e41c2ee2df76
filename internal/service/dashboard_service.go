package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// dueSoonHorizon is how far ahead the due-soon and due-upcoming
// windows look.
const dueSoonHorizon = 48 * time.Hour

// DashboardService computes the role-scoped operational summaries.
// Admins see the whole shop; everyone else sees their own tickets.
type DashboardService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService constructs the service. The clock is injectable
// so window arithmetic is testable.
func NewDashboardService(tickets repository.TicketRepository, users repository.UserRepository, logger *zap.Logger, now func() time.Time) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{tickets: tickets, users: users, logger: logger, now: now}
}

// Summary aggregates the dashboard counters.
type Summary struct {
	TotalUsers      int     `json:"total_users,omitempty"`
	TotalTickets    int     `json:"total_tickets"`
	InProgress      int     `json:"in_progress"`
	AwaitingPayment int     `json:"awaiting_payment"`
	Overdue         int     `json:"overdue"`
	DueSoon         int     `json:"due_soon"`
	DueToday        int     `json:"due_today"`
	DueUpcoming     int     `json:"due_upcoming"`
	MonthlyCounts   [12]int `json:"monthly_counts"`
}

// Summary computes the counters for the caller's scope.
func (s *DashboardService) Summary(ctx context.Context, actor *domain.User) (*Summary, error) {
	scope := s.scope(actor)
	now := s.now()
	endOfToday := endOfDay(now)
	startOfToday := startOfDay(now)
	horizon := now.Add(dueSoonHorizon)

	var summary Summary
	var err error

	if actor.Role == domain.RoleAdmin {
		summary.TotalUsers, err = s.users.Count(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	summary.TotalTickets, err = s.count(ctx, scope, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}

	inProgress := domain.TicketStatusInProgress
	summary.InProgress, err = s.count(ctx, scope, repository.TicketFilter{Status: &inProgress})
	if err != nil {
		return nil, err
	}

	finalized := domain.TicketStatusFinalized
	pendingPayment := domain.PaymentStatusPending
	summary.AwaitingPayment, err = s.count(ctx, scope, repository.TicketFilter{Status: &finalized, Payment: &pendingPayment})
	if err != nil {
		return nil, err
	}

	// overdue: past end of today and not yet finalized
	summary.Overdue, err = s.count(ctx, scope, repository.TicketFilter{
		StatusNot: &finalized,
		EndBefore: &endOfToday,
	})
	if err != nil {
		return nil, err
	}

	// due soon bounds on the raw current instant, not a day boundary,
	// and has no lower cutoff
	summary.DueSoon, err = s.count(ctx, scope, repository.TicketFilter{
		Status: &inProgress,
		EndTo:  &horizon,
	})
	if err != nil {
		return nil, err
	}

	summary.DueToday, err = s.count(ctx, scope, repository.TicketFilter{
		Status:  &inProgress,
		EndFrom: &startOfToday,
		EndTo:   &endOfToday,
	})
	if err != nil {
		return nil, err
	}

	upcomingTo := endOfToday.Add(dueSoonHorizon)
	summary.DueUpcoming, err = s.count(ctx, scope, repository.TicketFilter{
		Status:   &inProgress,
		EndAfter: &endOfToday,
		EndTo:    &upcomingTo,
	})
	if err != nil {
		return nil, err
	}

	summary.MonthlyCounts, err = s.tickets.MonthlyCounts(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &summary, nil
}

// Overdue lists tickets past end of today that are not finalized.
func (s *DashboardService) Overdue(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	finalized := domain.TicketStatusFinalized
	endOfToday := endOfDay(s.now())
	return s.list(ctx, s.scope(actor), repository.TicketFilter{
		StatusNot: &finalized,
		EndBefore: &endOfToday,
	})
}

// DueToday lists in-progress tickets whose end date falls today.
func (s *DashboardService) DueToday(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	inProgress := domain.TicketStatusInProgress
	now := s.now()
	from := startOfDay(now)
	to := endOfDay(now)
	return s.list(ctx, s.scope(actor), repository.TicketFilter{
		Status:  &inProgress,
		EndFrom: &from,
		EndTo:   &to,
	})
}

// DueUpcoming lists in-progress tickets ending after today but within
// the horizon.
func (s *DashboardService) DueUpcoming(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	inProgress := domain.TicketStatusInProgress
	after := endOfDay(s.now())
	to := after.Add(dueSoonHorizon)
	return s.list(ctx, s.scope(actor), repository.TicketFilter{
		Status:   &inProgress,
		EndAfter: &after,
		EndTo:    &to,
	})
}

// TicketsByCreator breaks total tickets down per operator. Admin only.
func (s *DashboardService) TicketsByCreator(ctx context.Context, actor *domain.User) ([]repository.CreatorCount, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	counts, err := s.tickets.CountByCreator(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

func (s *DashboardService) scope(actor *domain.User) *string {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	return &actor.ID
}

func (s *DashboardService) count(ctx context.Context, scope *string, filter repository.TicketFilter) (int, error) {
	filter.CreatedBy = scope
	count, err := s.tickets.Count(ctx, filter)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (s *DashboardService) list(ctx context.Context, scope *string, filter repository.TicketFilter) ([]domain.Ticket, error) {
	filter.CreatedBy = scope
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
