package postgres

import (
	"context"
	"errors"
	"fmt"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, currency, balance, locked_balance, created_at, updated_at`

// Create inserts a new wallet outside any enclosing transaction.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, currency, balance, locked_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Currency, w.Balance, w.LockedBalance, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// CreateInTx inserts a new wallet within a database transaction. Used for
// just-in-time wallet creation by credit-side composite operations.
func (r *WalletRepo) CreateInTx(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, currency, balance, locked_balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.UserID, w.Currency, w.Balance, w.LockedBalance, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet in tx: %w", err)
	}
	return nil
}

// GetByUserAndCurrency fetches a wallet without locking. Suitable only for
// reads and fail-fast pre-checks; mutations go through the ForUpdate variant.
func (r *WalletRepo) GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND currency = $2`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetByUserAndCurrencyForUpdate fetches a wallet with a row lock.
// MUST be called within a transaction; the returned balances are the
// authoritative values for the duration of the lock.
func (r *WalletRepo) GetByUserAndCurrencyForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND currency = $2 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// ListByUser fetches all wallets a user holds.
func (r *WalletRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		var w domain.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.LockedBalance, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// UpdateBalances writes both balances within a transaction. This is the only
// write path for wallet balances and is always preceded by a ForUpdate fetch
// in the same transaction.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, lockedBalance decimal.Decimal) error {
	query := `UPDATE wallets SET balance = $1, locked_balance = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, balance, lockedBalance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Currency, &w.Balance, &w.LockedBalance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}
