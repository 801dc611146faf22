package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CryptoAccount is a user's virtual account on one blockchain/currency pair.
// The balance is a NUMERIC column read and mutated only through the ledger
// primitives: every mutation re-reads the current value under lock, applies
// the delta and writes the result, never a blind overwrite.
type CryptoAccount struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Blockchain string          `json:"blockchain"`
	Currency   string          `json:"currency"`
	Address    string          `json:"address"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCryptoAccount creates a zero-balance crypto account.
func NewCryptoAccount(userID uuid.UUID, blockchain, currency, address string) *CryptoAccount {
	now := time.Now().UTC()
	return &CryptoAccount{
		ID:         uuid.New(),
		UserID:     userID,
		Blockchain: blockchain,
		Currency:   currency,
		Address:    address,
		Balance:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
