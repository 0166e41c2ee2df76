package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/dto"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/service"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// TransfersHandler manages ownership-transfer endpoints.
type TransfersHandler struct {
	service *service.TransferService
}

// NewTransfersHandler constructs handler.
func NewTransfersHandler(transferService *service.TransferService) *TransfersHandler {
	return &TransfersHandler{service: transferService}
}

// CreateTransfer POST /transfers.
func (h *TransfersHandler) CreateTransfer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	transfer, err := h.service.Request(c.Context(), principal.User, service.TransferRequestInput{
		TicketID:           req.TicketID,
		ProgressPercentage: req.ProgressPercentage,
		ClientInfo:         req.ClientInfo,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": transferResponse(transfer)})
}

// ResolveTransfer POST /transfers/:id/resolve.
func (h *TransfersHandler) ResolveTransfer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ResolveTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	transfer, err := h.service.Resolve(c.Context(), principal.User, c.Params("id"), service.TransferDecisionInput{
		Approve:    req.Approve,
		TransferTo: req.TransferTo,
		Reason:     req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transferResponse(transfer)})
}

// ListTransfers GET /transfers.
func (h *TransfersHandler) ListTransfers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	transfers, err := h.service.List(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, transferResponse(&transfers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func transferResponse(transfer *domain.TransferRequest) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                 transfer.ID,
		TicketID:           transfer.TicketID,
		RequestedBy:        transfer.RequestedBy,
		TransferTo:         transfer.TransferTo,
		ProgressPercentage: transfer.ProgressPercentage,
		ClientInfo:         transfer.ClientInfo,
		Status:             transfer.Status,
		ApprovedBy:         transfer.ApprovedBy,
		ApprovedAt:         transfer.ApprovedAt,
		Reason:             transfer.Reason,
		CreatedAt:          transfer.CreatedAt,
		UpdatedAt:          transfer.UpdatedAt,
	}
}
