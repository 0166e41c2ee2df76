package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/dto"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/service"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// FinanceHandler manages settlement endpoints.
type FinanceHandler struct {
	service *service.PaymentService
}

// NewFinanceHandler constructs handler.
func NewFinanceHandler(paymentService *service.PaymentService) *FinanceHandler {
	return &FinanceHandler{service: paymentService}
}

// ConfirmPayment POST /finance/confirm.
func (h *FinanceHandler) ConfirmPayment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ConfirmInput{
		TicketNumber: req.TicketNumber,
		FinalValue:   req.FinalValue,
	}
	if req.DiscountID != nil && *req.DiscountID != defaultDiscountSentinel {
		input.DiscountID = req.DiscountID
	}

	payment, err := h.service.Confirm(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": paymentResponse(payment)})
}

// ListPendingSettlement GET /finance/pending.
func (h *FinanceHandler) ListPendingSettlement(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	items, err := h.service.ListPendingSettlement(c.Context(), principal.User)
	if err != nil {
		return err
	}
	resp := make([]dto.SettlementItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.SettlementItemResponse{
			TicketNumber:    item.TicketNumber,
			CreatorName:     item.CreatorName,
			OriginalValue:   item.OriginalValue,
			FinalValue:      item.FinalValue,
			DiscountPercent: item.DiscountPercent,
			ProofKey:        item.ProofKey,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// PaymentHistory GET /finance/history/:ticketId.
func (h *FinanceHandler) PaymentHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	payments, err := h.service.History(c.Context(), principal.User, c.Params("ticketId"))
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func paymentResponse(payment *domain.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:              payment.ID,
		TicketID:        payment.TicketID,
		TicketNumber:    payment.TicketNumber,
		OriginalValue:   payment.OriginalValue,
		FinalValue:      payment.FinalValue,
		DiscountApplied: payment.DiscountApplied,
		ConfirmedBy:     payment.ConfirmedBy,
		ConfirmedAt:     payment.ConfirmedAt,
	}
}
