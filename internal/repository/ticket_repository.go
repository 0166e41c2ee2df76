package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// TicketFilter scopes listing and dashboard queries. End-date bounds
// combine to express the delivery windows: EndBefore/EndAfter are
// exclusive, EndFrom/EndTo inclusive.
type TicketFilter struct {
	CreatedBy     *string
	Status        *domain.TicketStatus
	StatusNot     *domain.TicketStatus
	Payment       *domain.PaymentStatus
	EndBefore     *time.Time
	EndAfter      *time.Time
	EndFrom       *time.Time
	EndTo         *time.Time
	IncludeHidden bool
}

// SettlementRow joins a ticket awaiting settlement with the figures the
// confirming role reviews.
type SettlementRow struct {
	TicketNumber    string
	CreatorName     string
	ServiceValue    float64
	DiscountPercent *int
	ProofKey        *string
}

// CreatorCount pairs an operator with their ticket total.
type CreatorCount struct {
	Username string
	Count    int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	GetByProofKey(ctx context.Context, key string) (*domain.Ticket, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	MonthlyCounts(ctx context.Context, createdBy *string) ([12]int, error)
	CountByCreator(ctx context.Context) ([]CreatorCount, error)
	ListPendingSettlement(ctx context.Context) ([]SettlementRow, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, service_id, client, email, start_date, end_date,
               status, payment, proof_key, discount_id, created_by, is_hidden, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (number, service_id, client, email, start_date, end_date, status, payment, proof_key, discount_id, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.ServiceID,
		ticket.Client,
		ticket.Email,
		ticket.StartDate,
		ticket.EndDate,
		ticket.Status,
		ticket.Payment,
		ticket.ProofKey,
		ticket.DiscountID,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, payment=$2, discount_id=$3, created_by=$4, is_hidden=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.Payment,
		ticket.DiscountID,
		ticket.CreatedBy,
		ticket.IsHidden,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number=$1`, number)
}

func (r *ticketRepository) GetByProofKey(ctx context.Context, key string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE proof_key=$1`, key)
}

func (r *ticketRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE number=$1)`, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, arg), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	clauses, args := buildTicketClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) MonthlyCounts(ctx context.Context, createdBy *string) ([12]int, error) {
	var counts [12]int
	query := `SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*) FROM tickets`
	args := []any{}
	if createdBy != nil {
		query += ` WHERE created_by=$1`
		args = append(args, *createdBy)
	}
	query += ` GROUP BY month ORDER BY month`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return counts, err
		}
		if month >= 1 && month <= 12 {
			counts[month-1] = count
		}
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountByCreator(ctx context.Context) ([]CreatorCount, error) {
	const query = `
        SELECT COALESCE(u.username, 'none'), COUNT(*)
        FROM tickets t
        LEFT JOIN users u ON u.id = t.created_by
        GROUP BY u.username
        ORDER BY COUNT(*) DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CreatorCount
	for rows.Next() {
		var row CreatorCount
		if err := rows.Scan(&row.Username, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListPendingSettlement(ctx context.Context) ([]SettlementRow, error) {
	const query = `
        SELECT t.number, COALESCE(u.username, 'none'), s.value, d.percentage, t.proof_key
        FROM tickets t
        JOIN services s ON s.id = t.service_id
        LEFT JOIN users u ON u.id = t.created_by
        LEFT JOIN discounts d ON d.id = t.discount_id
        WHERE t.status = $1 AND t.payment = $2
        ORDER BY t.end_date`

	rows, err := r.pool.Query(ctx, query, domain.TicketStatusFinalized, domain.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SettlementRow
	for rows.Next() {
		var row SettlementRow
		if err := rows.Scan(&row.TicketNumber, &row.CreatorName, &row.ServiceValue, &row.DiscountPercent, &row.ProofKey); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeHidden {
		clauses = append(clauses, "NOT is_hidden")
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.StatusNot != nil {
		args = append(args, *filter.StatusNot)
		clauses = append(clauses, fmt.Sprintf("status<>$%d", len(args)))
	}
	if filter.Payment != nil {
		args = append(args, *filter.Payment)
		clauses = append(clauses, fmt.Sprintf("payment=$%d", len(args)))
	}
	if filter.EndBefore != nil {
		args = append(args, *filter.EndBefore)
		clauses = append(clauses, fmt.Sprintf("end_date < $%d", len(args)))
	}
	if filter.EndAfter != nil {
		args = append(args, *filter.EndAfter)
		clauses = append(clauses, fmt.Sprintf("end_date > $%d", len(args)))
	}
	if filter.EndFrom != nil {
		args = append(args, *filter.EndFrom)
		clauses = append(clauses, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if filter.EndTo != nil {
		args = append(args, *filter.EndTo)
		clauses = append(clauses, fmt.Sprintf("end_date <= $%d", len(args)))
	}
	return clauses, args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.ServiceID,
		&ticket.Client,
		&ticket.Email,
		&ticket.StartDate,
		&ticket.EndDate,
		&ticket.Status,
		&ticket.Payment,
		&ticket.ProofKey,
		&ticket.DiscountID,
		&ticket.CreatedBy,
		&ticket.IsHidden,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}
