package postgres

import (
	"context"
	"errors"
	"fmt"

	"payvault/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CurrencyRepo implements ports.CurrencyRepository. Rates are owned by an
// external collaborator; the engine only reads them.
type CurrencyRepo struct {
	pool Pool
}

// NewCurrencyRepo creates a new CurrencyRepo.
func NewCurrencyRepo(pool Pool) *CurrencyRepo {
	return &CurrencyRepo{pool: pool}
}

// GetByCurrency fetches the USD rate row for a crypto currency.
func (r *CurrencyRepo) GetByCurrency(ctx context.Context, currency string) (*domain.WalletCurrency, error) {
	query := `SELECT id, blockchain, currency, name, rate_usd FROM wallet_currencies WHERE currency = $1`

	wc := &domain.WalletCurrency{}
	err := r.pool.QueryRow(ctx, query, currency).Scan(&wc.ID, &wc.Blockchain, &wc.Currency, &wc.Name, &wc.RateUSD)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet currency: %w", err)
	}
	return wc, nil
}

// List fetches all supported wallet currencies.
func (r *CurrencyRepo) List(ctx context.Context) ([]domain.WalletCurrency, error) {
	query := `SELECT id, blockchain, currency, name, rate_usd FROM wallet_currencies ORDER BY currency`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallet currencies: %w", err)
	}
	defer rows.Close()

	var result []domain.WalletCurrency
	for rows.Next() {
		var wc domain.WalletCurrency
		if err := rows.Scan(&wc.ID, &wc.Blockchain, &wc.Currency, &wc.Name, &wc.RateUSD); err != nil {
			return nil, fmt.Errorf("scan wallet currency: %w", err)
		}
		result = append(result, wc)
	}
	return result, rows.Err()
}
