package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stelaryous/ticketflow/internal/api/dto"
	"github.com/stelaryous/ticketflow/internal/auth"
	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/service"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// CatalogHandler manages category, service and discount endpoints.
type CatalogHandler struct {
	catalog   *service.CatalogService
	discounts *service.DiscountService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService, discounts *service.DiscountService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, discounts: discounts}
}

// CreateCategory POST /categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	category, err := h.catalog.CreateCategory(c.Context(), principal.User, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateService POST /services.
func (h *CatalogHandler) CreateService(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	svc, err := h.catalog.CreateService(c.Context(), principal.User, service.ServiceInput{
		Name:       req.Name,
		DueDays:    req.DueDays,
		Value:      req.Value,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": serviceResponse(svc)})
}

// ListServices GET /services.
func (h *CatalogHandler) ListServices(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	services, err := h.catalog.ListServices(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		items = append(items, serviceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// HideService DELETE /services/:id.
func (h *CatalogHandler) HideService(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.catalog.HideService(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"hidden": true}})
}

// CreateDiscount POST /discounts.
func (h *CatalogHandler) CreateDiscount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	discount, err := h.discounts.Create(c.Context(), principal.User, req.Cargo, req.Percentage)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": discountResponse(discount)})
}

// UpdateDiscount PATCH /discounts/:id.
func (h *CatalogHandler) UpdateDiscount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	discount, err := h.discounts.Update(c.Context(), principal.User, c.Params("id"), req.Cargo, req.Percentage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": discountResponse(discount)})
}

// ToggleDiscount POST /discounts/:id/toggle.
func (h *CatalogHandler) ToggleDiscount(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	discount, err := h.discounts.ToggleVisibility(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": discountResponse(discount)})
}

// ListDiscounts GET /discounts.
func (h *CatalogHandler) ListDiscounts(c *fiber.Ctx) error {
	discounts, err := h.discounts.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.DiscountResponse, 0, len(discounts))
	for i := range discounts {
		items = append(items, discountResponse(&discounts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}
}

func serviceResponse(svc *domain.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		ID:         svc.ID,
		Name:       svc.Name,
		DueDays:    svc.DueDays,
		Value:      svc.Value,
		CategoryID: svc.CategoryID,
		IsHidden:   svc.IsHidden,
		CreatedAt:  svc.CreatedAt,
	}
}

func discountResponse(discount *domain.Discount) dto.DiscountResponse {
	return dto.DiscountResponse{
		ID:         discount.ID,
		Cargo:      discount.Cargo,
		Percentage: discount.Percentage,
		Visible:    discount.Visible,
		CreatedAt:  discount.CreatedAt,
	}
}
