package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/dto"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/service"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// DashboardHandler manages summary endpoints.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Summary GET /dashboard/summary.
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	summary, err := h.service.Summary(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SummaryResponse{
		TotalUsers:      summary.TotalUsers,
		TotalTickets:    summary.TotalTickets,
		InProgress:      summary.InProgress,
		AwaitingPayment: summary.AwaitingPayment,
		Overdue:         summary.Overdue,
		DueSoon:         summary.DueSoon,
		DueToday:        summary.DueToday,
		DueUpcoming:     summary.DueUpcoming,
		MonthlyCounts:   summary.MonthlyCounts,
	}})
}

// Overdue GET /dashboard/overdue.
func (h *DashboardHandler) Overdue(c *fiber.Ctx) error {
	return h.ticketWindow(c, h.service.Overdue)
}

// DueToday GET /dashboard/due-today.
func (h *DashboardHandler) DueToday(c *fiber.Ctx) error {
	return h.ticketWindow(c, h.service.DueToday)
}

// DueUpcoming GET /dashboard/due-upcoming.
func (h *DashboardHandler) DueUpcoming(c *fiber.Ctx) error {
	return h.ticketWindow(c, h.service.DueUpcoming)
}

// TicketsByCreator GET /dashboard/by-creator.
func (h *DashboardHandler) TicketsByCreator(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	counts, err := h.service.TicketsByCreator(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.CreatorCountResponse, 0, len(counts))
	for _, count := range counts {
		items = append(items, dto.CreatorCountResponse{Username: count.Username, Count: count.Count})
	}
	return c.JSON(fiber.Map{"data": items})
}

func (h *DashboardHandler) ticketWindow(c *fiber.Ctx, fetch func(context.Context, *domain.User) ([]domain.Ticket, error)) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := fetch(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
