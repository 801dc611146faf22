package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DepositRepo implements ports.DepositRepository.
type DepositRepo struct {
	pool Pool
}

// NewDepositRepo creates a new DepositRepo.
func NewDepositRepo(pool Pool) *DepositRepo {
	return &DepositRepo{pool: pool}
}

const depositColumns = `id, user_id, deposit_reference, amount, fee, total_amount, currency, status, transaction_id, created_at, confirmed_at`

// Create inserts a new pending deposit intent.
func (r *DepositRepo) Create(ctx context.Context, d *domain.Deposit) error {
	query := `INSERT INTO deposits (id, user_id, deposit_reference, amount, fee, total_amount, currency, status, transaction_id, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.UserID, d.DepositReference, d.Amount, d.Fee, d.TotalAmount,
		d.Currency, d.Status, d.TransactionID, d.CreatedAt, d.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert deposit: %w", err)
	}
	return nil
}

// GetByReference fetches a deposit without locking.
func (r *DepositRepo) GetByReference(ctx context.Context, userID uuid.UUID, reference string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = $1 AND deposit_reference = $2`

	d, err := scanDeposit(r.pool.QueryRow(ctx, query, userID, reference))
	if err != nil {
		return nil, fmt.Errorf("get deposit: %w", err)
	}
	return d, nil
}

// GetPendingByReferenceForUpdate fetches a pending deposit with a row lock.
// The status filter inside the locking query makes confirm effectively-once:
// a racing second confirm matches zero rows after the first commits.
func (r *DepositRepo) GetPendingByReferenceForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reference string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits
		WHERE user_id = $1 AND deposit_reference = $2 AND status = 'pending' FOR UPDATE`

	d, err := scanDeposit(tx.QueryRow(ctx, query, userID, reference))
	if err != nil {
		return nil, fmt.Errorf("get pending deposit for update: %w", err)
	}
	return d, nil
}

// MarkCompleted finalises a deposit and links the spawned transaction.
func (r *DepositRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, transactionID string, confirmedAt time.Time) error {
	query := `UPDATE deposits SET status = 'completed', transaction_id = $1, confirmed_at = $2 WHERE id = $3`

	tag, err := tx.Exec(ctx, query, transactionID, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("mark deposit completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deposit not found: %s", id)
	}
	return nil
}

// ExistsByReference reports whether a deposit reference is already taken.
func (r *DepositRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM deposits WHERE deposit_reference = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check deposit reference exists: %w", err)
	}
	return exists, nil
}

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	d := &domain.Deposit{}
	err := row.Scan(&d.ID, &d.UserID, &d.DepositReference, &d.Amount, &d.Fee, &d.TotalAmount,
		&d.Currency, &d.Status, &d.TransactionID, &d.CreatedAt, &d.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}
