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

// CryptoAccountRepo implements ports.CryptoAccountRepository. Balances are
// NUMERIC(30,8): the full crypto precision lives in the column type, so no
// serialisation round-trip can lose digits.
type CryptoAccountRepo struct {
	pool Pool
}

// NewCryptoAccountRepo creates a new CryptoAccountRepo.
func NewCryptoAccountRepo(pool Pool) *CryptoAccountRepo {
	return &CryptoAccountRepo{pool: pool}
}

const cryptoAccountColumns = `id, user_id, blockchain, currency, address, balance, created_at, updated_at`

// CreateInTx inserts a new crypto account within a transaction. Accounts are
// created just-in-time by the first credit-side operation that needs them.
func (r *CryptoAccountRepo) CreateInTx(ctx context.Context, tx pgx.Tx, a *domain.CryptoAccount) error {
	query := `INSERT INTO crypto_accounts (id, user_id, blockchain, currency, address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		a.ID, a.UserID, a.Blockchain, a.Currency, a.Address, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert crypto account: %w", err)
	}
	return nil
}

// GetByUserAndCurrency fetches a crypto account without locking.
func (r *CryptoAccountRepo) GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency string) (*domain.CryptoAccount, error) {
	query := `SELECT ` + cryptoAccountColumns + ` FROM crypto_accounts WHERE user_id = $1 AND currency = $2`

	a, err := scanCryptoAccount(r.pool.QueryRow(ctx, query, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("get crypto account: %w", err)
	}
	return a, nil
}

// GetByUserAndCurrencyForUpdate fetches a crypto account with a row lock.
// MUST be called within a transaction.
func (r *CryptoAccountRepo) GetByUserAndCurrencyForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.CryptoAccount, error) {
	query := `SELECT ` + cryptoAccountColumns + ` FROM crypto_accounts WHERE user_id = $1 AND currency = $2 FOR UPDATE`

	a, err := scanCryptoAccount(tx.QueryRow(ctx, query, userID, currency))
	if err != nil {
		return nil, fmt.Errorf("get crypto account for update: %w", err)
	}
	return a, nil
}

// ListByUser fetches all crypto accounts a user holds.
func (r *CryptoAccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CryptoAccount, error) {
	query := `SELECT ` + cryptoAccountColumns + ` FROM crypto_accounts WHERE user_id = $1 ORDER BY currency`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list crypto accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.CryptoAccount
	for rows.Next() {
		var a domain.CryptoAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Blockchain, &a.Currency, &a.Address, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan crypto account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateBalance writes the balance within a transaction, always preceded by
// a ForUpdate fetch in the same transaction.
func (r *CryptoAccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE crypto_accounts SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, accountID)
	if err != nil {
		return fmt.Errorf("update crypto balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("crypto account not found: %s", accountID)
	}
	return nil
}

func scanCryptoAccount(row pgx.Row) (*domain.CryptoAccount, error) {
	a := &domain.CryptoAccount{}
	err := row.Scan(&a.ID, &a.UserID, &a.Blockchain, &a.Currency, &a.Address, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
