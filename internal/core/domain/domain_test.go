package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{TransactionStatusPending, TransactionStatusCompleted, true},
		{TransactionStatusPending, TransactionStatusFailed, true},
		{TransactionStatusPending, TransactionStatusCancelled, true},
		{TransactionStatusPending, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusPending, false},
		{TransactionStatusCompleted, TransactionStatusFailed, false},
		{TransactionStatusFailed, TransactionStatusCompleted, false},
		{TransactionStatusCancelled, TransactionStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionStatus_IsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusPending.IsTerminal())
	assert.True(t, TransactionStatusCompleted.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusCancelled.IsTerminal())
}

func TestWallet_AvailableBalance(t *testing.T) {
	w := &Wallet{
		Balance:       decimal.RequireFromString("1000"),
		LockedBalance: decimal.RequireFromString("250.50"),
	}
	assert.True(t, w.AvailableBalance().Equal(decimal.RequireFromString("749.50")))
}

func TestNewWallet_ZeroBalances(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	assert.True(t, w.Balance.IsZero())
	assert.True(t, w.LockedBalance.IsZero())
	assert.Equal(t, "NGN", w.Currency)
}

func TestUser_HasPin(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasPin())

	empty := ""
	u.PinHash = &empty
	assert.False(t, u.HasPin())

	hash := "$argon2id$v=19$..."
	u.PinHash = &hash
	assert.True(t, u.HasPin())
}
