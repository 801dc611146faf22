package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillCategory is a class of bill (airtime, data, electricity, cable, ...).
// Reference data; the engine treats rows as immutable snapshots.
type BillCategory struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	HasPlans bool   `json:"has_plans"` // plan-priced categories (data, cable)
}

// BillCategoryElectricity marks the category whose confirm step synthesises
// a recharge token for prepaid meters.
const BillCategoryElectricity = "electricity"

// BillProvider is a biller under a category (MTN, DSTV, EKEDC, ...).
type BillProvider struct {
	ID           uuid.UUID `json:"id"`
	CategoryCode string    `json:"category_code"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
}

// BillPlan is a fixed-price offering under a provider.
type BillPlan struct {
	ID         uuid.UUID       `json:"id"`
	ProviderID uuid.UUID       `json:"provider_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// WalletCurrency maps a (blockchain, currency) pair to its USD price.
// Read-only from the engine's perspective; an external collaborator owns
// rate updates.
type WalletCurrency struct {
	ID         uuid.UUID       `json:"id"`
	Blockchain string          `json:"blockchain"`
	Currency   string          `json:"currency"`
	Name       string          `json:"name"`
	RateUSD    decimal.Decimal `json:"rate_usd"` // price of 1 unit in USD
}
