package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositStatus is the lifecycle state of a deposit intent.
type DepositStatus string

const (
	DepositStatusPending   DepositStatus = "pending"
	DepositStatusCompleted DepositStatus = "completed"
	DepositStatusCancelled DepositStatus = "cancelled"
)

// Deposit is a pending inbound transfer, separate from the transaction log
// until confirmation. Confirming spawns exactly one Transaction and links it
// via TransactionID; pending -> completed is one-way.
type Deposit struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	DepositReference string          `json:"deposit_reference"` // unique
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	Status           DepositStatus   `json:"status"`
	TransactionID    *string         `json:"transaction_id,omitempty"` // set on confirmation
	CreatedAt        time.Time       `json:"created_at"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
}
