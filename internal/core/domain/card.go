package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the provisioning state of a virtual card.
type CardStatus string

const (
	CardStatusActive CardStatus = "active"
	CardStatusFrozen CardStatus = "frozen"
)

// VirtualCard is a USD-denominated spending card funded from a user's
// wallets. The balance follows the same locked-mutation contract as wallets.
type VirtualCard struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Currency   string          `json:"currency"` // always USD
	Balance    decimal.Decimal `json:"balance"`
	MaskedPAN  string          `json:"masked_pan"`
	Status     CardStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewVirtualCard creates an active zero-balance USD card.
func NewVirtualCard(userID uuid.UUID, maskedPAN string) *VirtualCard {
	now := time.Now().UTC()
	return &VirtualCard{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  "USD",
		Balance:   decimal.Zero,
		MaskedPAN: maskedPAN,
		Status:    CardStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
