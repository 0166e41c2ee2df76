package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// PaymentRepository appends settlement records. Payments are immutable
// once written; there is no update or delete.
type PaymentRepository interface {
	// Confirm inserts the settlement snapshot and flips the ticket to
	// payment complete (applying a discount re-reference if set) in one
	// transaction.
	Confirm(ctx context.Context, payment *domain.Payment, ticketDiscountID *string) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) Confirm(ctx context.Context, payment *domain.Payment, ticketDiscountID *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertQuery = `
        INSERT INTO payments (ticket_id, ticket_number, original_value, final_value, discount_applied, confirmed_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, confirmed_at`
	if err := tx.QueryRow(ctx, insertQuery,
		payment.TicketID,
		payment.TicketNumber,
		payment.OriginalValue,
		payment.FinalValue,
		payment.DiscountApplied,
		payment.ConfirmedBy,
	).Scan(&payment.ID, &payment.ConfirmedAt); err != nil {
		return err
	}

	const flipQuery = `
        UPDATE tickets SET payment=$1, discount_id=COALESCE($2, discount_id), updated_at=NOW()
        WHERE id=$3`
	if _, err := tx.Exec(ctx, flipQuery, domain.PaymentStatusComplete, ticketDiscountID, payment.TicketID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *paymentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Payment, error) {
	const query = `
        SELECT id, ticket_id, ticket_number, original_value, final_value, discount_applied, confirmed_by, confirmed_at
        FROM payments WHERE ticket_id=$1 ORDER BY confirmed_at`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.TicketID,
			&payment.TicketNumber,
			&payment.OriginalValue,
			&payment.FinalValue,
			&payment.DiscountApplied,
			&payment.ConfirmedBy,
			&payment.ConfirmedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}
