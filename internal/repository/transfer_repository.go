package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stelaryous/ticketflow/internal/domain"
)

// TransferRepository persists ownership-transfer requests.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.TransferRequest) error
	GetByID(ctx context.Context, id string) (*domain.TransferRequest, error)
	HasPendingForTicket(ctx context.Context, ticketID string) (bool, error)
	List(ctx context.Context, participantID *string) ([]domain.TransferRequest, error)
	// Resolve records the terminal decision and, on approval, reassigns
	// ticket ownership in the same transaction.
	Resolve(ctx context.Context, transfer *domain.TransferRequest) error
}

type transferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository instantiates repository.
func NewTransferRepository(pool *pgxpool.Pool) TransferRepository {
	return &transferRepository{pool: pool}
}

const transferColumns = `id, ticket_id, requested_by, transfer_to, progress_percentage, client_info,
               status, approved_by, approved_at, reason, created_at, updated_at`

func (r *transferRepository) Create(ctx context.Context, transfer *domain.TransferRequest) error {
	const query = `
        INSERT INTO transfer_requests (ticket_id, requested_by, progress_percentage, client_info, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		transfer.TicketID,
		transfer.RequestedBy,
		transfer.ProgressPercentage,
		transfer.ClientInfo,
		transfer.Status,
	).Scan(&transfer.ID, &transfer.CreatedAt, &transfer.UpdatedAt)
}

func (r *transferRepository) GetByID(ctx context.Context, id string) (*domain.TransferRequest, error) {
	var transfer domain.TransferRequest
	if err := scanTransfer(r.pool.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id=$1`, id), &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) HasPendingForTicket(ctx context.Context, ticketID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM transfer_requests WHERE ticket_id=$1 AND status=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID, domain.TransferStatusPending).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *transferRepository) List(ctx context.Context, participantID *string) ([]domain.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests`
	args := []any{}
	if participantID != nil {
		query += ` WHERE requested_by=$1 OR transfer_to=$1`
		args = append(args, *participantID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TransferRequest
	for rows.Next() {
		var transfer domain.TransferRequest
		if err := scanTransfer(rows, &transfer); err != nil {
			return nil, err
		}
		result = append(result, transfer)
	}
	return result, rows.Err()
}

func (r *transferRepository) Resolve(ctx context.Context, transfer *domain.TransferRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE transfer_requests SET status=$1, transfer_to=$2, approved_by=$3, approved_at=$4, reason=$5, updated_at=NOW()
        WHERE id=$6 AND status=$7`
	cmd, err := tx.Exec(ctx, updateQuery,
		transfer.Status,
		transfer.TransferTo,
		transfer.ApprovedBy,
		transfer.ApprovedAt,
		transfer.Reason,
		transfer.ID,
		domain.TransferStatusPending,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// lost the race against a concurrent resolution
		return pgx.ErrNoRows
	}

	if transfer.Status == domain.TransferStatusApproved && transfer.TransferTo != nil {
		const reassignQuery = `UPDATE tickets SET created_by=$1, updated_at=NOW() WHERE id=$2`
		if _, err := tx.Exec(ctx, reassignQuery, *transfer.TransferTo, transfer.TicketID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanTransfer(row pgx.Row, transfer *domain.TransferRequest) error {
	return row.Scan(
		&transfer.ID,
		&transfer.TicketID,
		&transfer.RequestedBy,
		&transfer.TransferTo,
		&transfer.ProgressPercentage,
		&transfer.ClientInfo,
		&transfer.Status,
		&transfer.ApprovedBy,
		&transfer.ApprovedAt,
		&transfer.Reason,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	)
}
