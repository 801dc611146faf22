package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeBillPayment      TransactionType = "bill_payment"
	TransactionTypeCryptoBuy        TransactionType = "crypto_buy"
	TransactionTypeCryptoSell       TransactionType = "crypto_sell"
	TransactionTypeCryptoWithdrawal TransactionType = "crypto_withdrawal"
	TransactionTypeCardFunding      TransactionType = "card_funding"
	TransactionTypeCardWithdrawal   TransactionType = "card_withdrawal"
	TransactionTypeCardCreation     TransactionType = "card_creation"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// CanTransitionTo reports whether the status may legally move to next.
// A transaction never regresses from a terminal state; pending may complete,
// fail or be cancelled exactly once.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return false
	}
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusCompleted ||
			next == TransactionStatusFailed ||
			next == TransactionStatusCancelled
	default:
		return false
	}
}

// IsTerminal returns true if the status is final.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted ||
		s == TransactionStatusFailed ||
		s == TransactionStatusCancelled
}

// Metadata is the free-form operation detail snapshotted onto a transaction
// record at execution time (provider, exchange rate, recharge token, ...).
// Snapshots keep historical records accurate even when reference data is
// later edited.
type Metadata map[string]any

// Transaction is an entry in the append-only log of money-movement attempts.
// TransactionID and Reference are immutable once written; Status is the only
// mutable field and moves through CanTransitionTo.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	TransactionID string            `json:"transaction_id"` // random hex, globally unique
	Reference     string            `json:"reference"`      // human-shareable, unique
	UserID        uuid.UUID         `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	TotalAmount   decimal.Decimal   `json:"total_amount"` // amount + fee
	Currency      string            `json:"currency"`
	Metadata      Metadata          `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}
