package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a user's fiat wallet in one currency. Balance and LockedBalance
// are NUMERIC columns; the spendable amount is Balance minus LockedBalance.
type Wallet struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	LockedBalance decimal.Decimal `json:"locked_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AvailableBalance returns the amount actually spendable.
func (w *Wallet) AvailableBalance() decimal.Decimal {
	return w.Balance.Sub(w.LockedBalance)
}

// NewWallet creates a zero-balance wallet for a user and currency.
func NewWallet(userID uuid.UUID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:            uuid.New(),
		UserID:        userID,
		Currency:      currency,
		Balance:       decimal.Zero,
		LockedBalance: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
