package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository over the
// append-only transactions table.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, transaction_id, reference, user_id, type, status,
		amount, fee, total_amount, currency, metadata, created_at, completed_at`

// Create inserts a new record outside any enclosing transaction. Used by the
// initiate phase, which reserves intent without touching balances.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, transaction_id, reference, user_id, type, status,
		amount, fee, total_amount, currency, metadata, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.TransactionID, t.Reference, t.UserID, t.Type, t.Status,
		t.Amount, t.Fee, t.TotalAmount, t.Currency, t.Metadata, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateInTx inserts a new record within a database transaction, so the
// record commits atomically with the balance mutation it describes.
func (r *TransactionRepo) CreateInTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, transaction_id, reference, user_id, type, status,
		amount, fee, total_amount, currency, metadata, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.TransactionID, t.Reference, t.UserID, t.Type, t.Status,
		t.Amount, t.Fee, t.TotalAmount, t.Currency, t.Metadata, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction in tx: %w", err)
	}
	return nil
}

// GetByTransactionID fetches a record by its public transaction id.
func (r *TransactionRepo) GetByTransactionID(ctx context.Context, userID uuid.UUID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND transaction_id = $2`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, userID, transactionID))
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// GetPendingForUpdate fetches a pending record with a row lock. The status
// filter sits inside the locking query: when two confirms race, the loser
// blocks on the winner's lock and then matches zero rows, because the row is
// no longer pending once the winner commits.
func (r *TransactionRepo) GetPendingForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 AND transaction_id = $2 AND status = 'pending' FOR UPDATE`

	t, err := scanTransaction(tx.QueryRow(ctx, query, userID, transactionID))
	if err != nil {
		return nil, fmt.Errorf("get pending transaction for update: %w", err)
	}
	return t, nil
}

// UpdateStatus is the only mutation path for transaction state. It merges
// extraMetadata into the stored metadata so confirm-time detail (recharge
// token, completion data) lands on the snapshot without replacing it.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, completedAt *time.Time, extraMetadata domain.Metadata) error {
	if extraMetadata == nil {
		extraMetadata = domain.Metadata{}
	}
	query := `UPDATE transactions SET status = $1, completed_at = $2, metadata = metadata || $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, status, completedAt, extraMetadata, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// ExistsByTransactionID reports whether a transaction id is already taken.
// Backs the collision-retry loop in the id generator.
func (r *TransactionRepo) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE transaction_id = $1)`, transactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction id exists: %w", err)
	}
	return exists, nil
}

// ExistsByReference reports whether a reference is already taken.
func (r *TransactionRepo) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE reference = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reference exists: %w", err)
	}
	return exists, nil
}

// List returns a filtered, paginated slice of a user's transactions plus the
// total match count.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	conditions := []string{"user_id = $1"}
	args := []any{params.UserID}

	if params.Status != nil {
		args = append(args, *params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Type != nil {
		args = append(args, *params.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 20
	}
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.TransactionID, &t.Reference, &t.UserID, &t.Type, &t.Status,
			&t.Amount, &t.Fee, &t.TotalAmount, &t.Currency, &t.Metadata, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	return result, total, rows.Err()
}

// GetStats aggregates a user's transaction counts and totals.
func (r *TransactionRepo) GetStats(ctx context.Context, userID uuid.UUID, periodStart *time.Time) (*ports.TransactionStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'completed'),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'failed'),
		COALESCE(SUM(amount) FILTER (WHERE status = 'completed' AND type = 'deposit'), 0),
		COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed' AND type != 'deposit'), 0)
		FROM transactions WHERE user_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)`

	stats := &ports.TransactionStats{}
	err := r.pool.QueryRow(ctx, query, userID, periodStart).Scan(
		&stats.TotalTransactions, &stats.Completed, &stats.Pending, &stats.Failed,
		&stats.TotalDeposited, &stats.TotalSpent,
	)
	if err != nil {
		return nil, fmt.Errorf("get transaction stats: %w", err)
	}
	return stats, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(&t.ID, &t.TransactionID, &t.Reference, &t.UserID, &t.Type, &t.Status,
		&t.Amount, &t.Fee, &t.TotalAmount, &t.Currency, &t.Metadata, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}
