package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// DiscountRepository persists role-scoped discounts.
type DiscountRepository interface {
	Create(ctx context.Context, discount *domain.Discount) error
	Update(ctx context.Context, discount *domain.Discount) error
	GetByID(ctx context.Context, id string) (*domain.Discount, error)
	List(ctx context.Context) ([]domain.Discount, error)
}

type discountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository instantiates repository.
func NewDiscountRepository(pool *pgxpool.Pool) DiscountRepository {
	return &discountRepository{pool: pool}
}

func (r *discountRepository) Create(ctx context.Context, discount *domain.Discount) error {
	const query = `
        INSERT INTO discounts (cargo, percentage, visible)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		discount.Cargo,
		discount.Percentage,
		discount.Visible,
	).Scan(&discount.ID, &discount.CreatedAt, &discount.UpdatedAt)
}

func (r *discountRepository) Update(ctx context.Context, discount *domain.Discount) error {
	const query = `
        UPDATE discounts SET cargo=$1, percentage=$2, visible=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		discount.Cargo,
		discount.Percentage,
		discount.Visible,
		discount.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *discountRepository) GetByID(ctx context.Context, id string) (*domain.Discount, error) {
	const query = `SELECT id, cargo, percentage, visible, created_at, updated_at FROM discounts WHERE id=$1`
	var discount domain.Discount
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&discount.ID,
		&discount.Cargo,
		&discount.Percentage,
		&discount.Visible,
		&discount.CreatedAt,
		&discount.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepository) List(ctx context.Context) ([]domain.Discount, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, cargo, percentage, visible, created_at, updated_at FROM discounts ORDER BY cargo`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Discount
	for rows.Next() {
		var discount domain.Discount
		if err := rows.Scan(
			&discount.ID,
			&discount.Cargo,
			&discount.Percentage,
			&discount.Visible,
			&discount.CreatedAt,
			&discount.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, discount)
	}
	return result, rows.Err()
}
