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

// CatalogService manages the category and service reference data that
// tickets are priced against.
type CatalogService struct {
	catalog repository.CatalogRepository
	logger  *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(catalog repository.CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

// CreateCategory registers a category. Names are stored uppercased so
// equality is case-insensitive.
func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.User, name string) (*domain.Category, error) {
	if !canManageCatalog(actor) {
		return nil, apperrors.NewForbidden("admin or financeiro required")
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return nil, apperrors.NewValidationError("category name required", nil)
	}

	if existing, err := s.catalog.GetCategoryByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("category already exists", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	category := &domain.Category{Name: name}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("category already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("category created", zap.String("name", name), zap.String("by", actor.Username))
	return category, nil
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// ServiceInput describes service creation payload.
type ServiceInput struct {
	Name       string
	DueDays    int
	Value      float64
	CategoryID string
}

// CreateService registers a billable service under a category.
func (s *CatalogService) CreateService(ctx context.Context, actor *domain.User, input ServiceInput) (*domain.Service, error) {
	if !canManageCatalog(actor) {
		return nil, apperrors.NewForbidden("admin or financeiro required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" || input.CategoryID == "" {
		return nil, apperrors.NewValidationError("name and category are required", nil)
	}
	if input.DueDays <= 0 {
		return nil, apperrors.NewValidationError("due days must be positive", map[string]any{"due_days": input.DueDays})
	}
	if input.Value < 0 {
		return nil, apperrors.NewValidationError("value cannot be negative", map[string]any{"value": input.Value})
	}

	if _, err := s.catalog.GetCategoryByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}

	svc := &domain.Service{
		Name:       input.Name,
		DueDays:    input.DueDays,
		Value:      input.Value,
		CategoryID: input.CategoryID,
	}
	if err := s.catalog.CreateService(ctx, svc); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("service created",
		zap.String("name", svc.Name),
		zap.Int("due_days", svc.DueDays),
		zap.Float64("value", svc.Value))
	return svc, nil
}

// ListServices returns services; hidden ones only for admins.
func (s *CatalogService) ListServices(ctx context.Context, actor *domain.User) ([]domain.Service, error) {
	includeHidden := actor.Role == domain.RoleAdmin
	services, err := s.catalog.ListServices(ctx, includeHidden)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return services, nil
}

// HideService soft-removes a service from the catalog. Tickets already
// priced against it keep their derived dates and values.
func (s *CatalogService) HideService(ctx context.Context, actor *domain.User, id string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin required")
	}
	svc, err := s.catalog.GetServiceByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("service", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	svc.IsHidden = true
	if err := s.catalog.UpdateService(ctx, svc); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("service hidden", zap.String("service_id", id), zap.String("by", actor.Username))
	return nil
}

func canManageCatalog(actor *domain.User) bool {
	return actor.Role == domain.RoleAdmin || actor.Role == domain.RoleFinanceiro
}
