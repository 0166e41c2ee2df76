package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/domain"
	"github.com/stelaryous/ticketflow/internal/repository"
	apperrors "github.com/stelaryous/ticketflow/pkg/util"
)

// FinalValue applies a discount percentage to a service value. A nil
// discount leaves the value unchanged. The percentage is read from
// whatever the discount holds right now; snapshotting only happens when
// a payment record is written.
func FinalValue(serviceValue float64, discount *domain.Discount) float64 {
	if discount == nil {
		return serviceValue
	}
	return serviceValue * (1 - float64(discount.Percentage)/100)
}

// DiscountService manages role-scoped discounts. All mutations are
// restricted to admins.
type DiscountService struct {
	discounts repository.DiscountRepository
	logger    *zap.Logger
}

// NewDiscountService constructs the service.
func NewDiscountService(discounts repository.DiscountRepository, logger *zap.Logger) *DiscountService {
	return &DiscountService{discounts: discounts, logger: logger}
}

// Create registers a new discount.
func (s *DiscountService) Create(ctx context.Context, actor *domain.User, cargo string, percentage int) (*domain.Discount, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	cargo = strings.TrimSpace(cargo)
	if cargo == "" {
		return nil, apperrors.NewValidationError("cargo required", nil)
	}
	if percentage < 0 || percentage > 100 {
		return nil, apperrors.NewValidationError("percentage must be between 0 and 100", nil)
	}

	discount := &domain.Discount{
		Cargo:      cargo,
		Percentage: percentage,
		Visible:    true,
	}
	if err := s.discounts.Create(ctx, discount); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("discount created", zap.String("cargo", cargo), zap.Int("percentage", percentage))
	return discount, nil
}

// Update changes cargo and/or percentage of an existing discount.
func (s *DiscountService) Update(ctx context.Context, actor *domain.User, id string, cargo *string, percentage *int) (*domain.Discount, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	discount, err := s.discounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("discount", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if cargo != nil {
		trimmed := strings.TrimSpace(*cargo)
		if trimmed == "" {
			return nil, apperrors.NewValidationError("cargo cannot be empty", nil)
		}
		discount.Cargo = trimmed
	}
	if percentage != nil {
		if *percentage < 0 || *percentage > 100 {
			return nil, apperrors.NewValidationError("percentage must be between 0 and 100", nil)
		}
		discount.Percentage = *percentage
	}

	if err := s.discounts.Update(ctx, discount); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("discount updated", zap.String("discount_id", discount.ID), zap.String("by", actor.Username))
	return discount, nil
}

// ToggleVisibility flips the visible flag.
func (s *DiscountService) ToggleVisibility(ctx context.Context, actor *domain.User, id string) (*domain.Discount, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin required")
	}
	discount, err := s.discounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("discount", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	discount.Visible = !discount.Visible
	if err := s.discounts.Update(ctx, discount); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("discount visibility toggled",
		zap.String("discount_id", discount.ID),
		zap.Bool("visible", discount.Visible))
	return discount, nil
}

// List returns all discounts.
func (s *DiscountService) List(ctx context.Context) ([]domain.Discount, error) {
	discounts, err := s.discounts.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return discounts, nil
}
