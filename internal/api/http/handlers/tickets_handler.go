package handlers

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/dto"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/service"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// defaultDiscountSentinel is what old clients send to mean "no
// discount".
const defaultDiscountSentinel = "default"

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Multipart form so the payment proof can
// ride along with the fields.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	input := service.TicketCreateInput{
		Number:    strings.TrimSpace(c.FormValue("number")),
		ServiceID: c.FormValue("service_id"),
		Client:    c.FormValue("client"),
		Email:     c.FormValue("email"),
		StartDate: c.FormValue("start_date"),
	}
	if discountID := c.FormValue("discount_id"); discountID != "" && discountID != defaultDiscountSentinel {
		input.DiscountID = &discountID
	}

	if file, err := c.FormFile("proof"); err == nil && file != nil {
		src, err := file.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable proof upload", nil)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return apperrors.NewValidationError("unreadable proof upload", nil)
		}
		input.Proof = data
	}

	ticket, err := h.service.Create(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	tickets, err := h.service.List(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.Get(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Status:  req.Status,
		Payment: req.Payment,
	}
	if req.DiscountID != nil && *req.DiscountID != defaultDiscountSentinel {
		input.DiscountID = req.DiscountID
	}

	ticket, err := h.service.Update(c.Context(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// HideTicket DELETE /tickets/:id.
func (h *TicketsHandler) HideTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Hide(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"hidden": true}})
}

// GetProof GET /tickets/proof/*.
func (h *TicketsHandler) GetProof(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	key := c.Params("*")
	if key == "" {
		return apperrors.NewValidationError("proof key required", nil)
	}

	data, contentType, err := h.service.GetProof(c.Context(), principal.User, key)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Send(data)
}

// GetProofURL GET /tickets/proof-url/*.
func (h *TicketsHandler) GetProofURL(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	key := c.Params("*")
	if key == "" {
		return apperrors.NewValidationError("proof key required", nil)
	}

	url, err := h.service.ProofURL(c.Context(), principal.User, key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProofURLResponse{URL: url}})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:         ticket.ID,
		Number:     ticket.Number,
		ServiceID:  ticket.ServiceID,
		Client:     ticket.Client,
		Email:      ticket.Email,
		StartDate:  ticket.StartDate,
		EndDate:    ticket.EndDate,
		Status:     ticket.Status,
		Payment:    ticket.Payment,
		ProofKey:   ticket.ProofKey,
		DiscountID: ticket.DiscountID,
		CreatedBy:  ticket.CreatedBy,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}
