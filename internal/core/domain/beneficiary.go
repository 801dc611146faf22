package domain

import (
	"time"

	"github.com/google/uuid"
)

// Beneficiary is a saved (category, provider, account number) tuple used to
// pre-fill bill payments. Rows are soft-deleted via IsActive; uniqueness is
// enforced among active rows only.
type Beneficiary struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	CategoryCode  string    `json:"category_code"`
	ProviderCode  string    `json:"provider_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
