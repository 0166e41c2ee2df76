package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// CatalogRepository persists categories and services, the read-mostly
// reference data tickets are priced against.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategoryByID(ctx context.Context, id string) (*domain.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateService(ctx context.Context, service *domain.Service) error
	UpdateService(ctx context.Context, service *domain.Service) error
	GetServiceByID(ctx context.Context, id string) (*domain.Service, error)
	ListServices(ctx context.Context, includeHidden bool) ([]domain.Service, error)
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository instantiates repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, category.Name).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *catalogRepository) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `SELECT id, name, created_at, updated_at FROM categories WHERE id=$1`
	return r.fetchCategory(ctx, query, id)
}

func (r *catalogRepository) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	const query = `SELECT id, name, created_at, updated_at FROM categories WHERE name=$1`
	return r.fetchCategory(ctx, query, name)
}

func (r *catalogRepository) fetchCategory(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&category.ID,
		&category.Name,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

const serviceColumns = `id, name, due_days, value, category_id, is_hidden, created_at, updated_at`

func (r *catalogRepository) CreateService(ctx context.Context, service *domain.Service) error {
	const query = `
        INSERT INTO services (name, due_days, value, category_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		service.Name,
		service.DueDays,
		service.Value,
		service.CategoryID,
	).Scan(&service.ID, &service.CreatedAt, &service.UpdatedAt)
}

func (r *catalogRepository) UpdateService(ctx context.Context, service *domain.Service) error {
	const query = `
        UPDATE services SET name=$1, due_days=$2, value=$3, category_id=$4, is_hidden=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		service.Name,
		service.DueDays,
		service.Value,
		service.CategoryID,
		service.IsHidden,
		service.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *catalogRepository) GetServiceByID(ctx context.Context, id string) (*domain.Service, error) {
	const query = `SELECT ` + serviceColumns + ` FROM services WHERE id=$1`
	var service domain.Service
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.Name,
		&service.DueDays,
		&service.Value,
		&service.CategoryID,
		&service.IsHidden,
		&service.CreatedAt,
		&service.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *catalogRepository) ListServices(ctx context.Context, includeHidden bool) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if !includeHidden {
		query += ` WHERE NOT is_hidden`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Service
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(
			&service.ID,
			&service.Name,
			&service.DueDays,
			&service.Value,
			&service.CategoryID,
			&service.IsHidden,
			&service.CreatedAt,
			&service.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, service)
	}
	return result, rows.Err()
}
