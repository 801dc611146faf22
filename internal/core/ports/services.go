package ports

import (
	"context"
	"time"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// HashService handles argon2id hashing for passwords and transaction PINs.
type HashService interface {
	Hash(plain string) (string, error)
	Verify(plain string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// PinVerifier checks a user's transaction PIN. VerifyPin returns false for
// both "no PIN set" and "PIN mismatch"; callers disambiguate via HasPin
// before surfacing the generic invalid-PIN error.
type PinVerifier interface {
	HasPin(ctx context.Context, userID uuid.UUID) (bool, error)
	VerifyPin(ctx context.Context, userID uuid.UUID, pin string) (bool, error)
}

// FeePolicy computes fees. Pure with respect to account state; values come
// from configuration so tests can inject deterministic policies.
type FeePolicy interface {
	BillPaymentFee(amount decimal.Decimal, currency string) decimal.Decimal
	CryptoTradeFee(cryptoAmount decimal.Decimal) decimal.Decimal
	CryptoSendFee(rateUSD decimal.Decimal) decimal.Decimal
	CardFlatFee() decimal.Decimal
	CardCreationFeeUSD() decimal.Decimal
	WithdrawalFee() decimal.Decimal
	DepositFee() decimal.Decimal
}

// Conversion is the result of one rate resolution: the scalar applied and
// the derived amount. Callers persist Rate into transaction metadata rather
// than recomputing it later.
type Conversion struct {
	Rate   decimal.Decimal // USD price of 1 unit of the crypto leg
	Amount decimal.Decimal
}

// RateResolver converts between fiat and crypto using stored per-currency
// USD rates and a flat fiat/USD constant.
type RateResolver interface {
	USDRate(ctx context.Context, currency string) (decimal.Decimal, error)
	NGNPerUSD() decimal.Decimal
	FiatToCrypto(ctx context.Context, fiatAmount decimal.Decimal, cryptoCurrency string) (*Conversion, error)
	CryptoToFiat(ctx context.Context, cryptoAmount decimal.Decimal, cryptoCurrency string) (*Conversion, error)
}

// Notifier is the fire-and-forget notification sink. Implementations log
// failures and never propagate them into a committed money movement.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string)
}

// --- Service Ports (Business Logic) ---

// BillPaymentService is the two-phase bill payment protocol.
type BillPaymentService interface {
	// Initiate reserves intent: it resolves catalog data, computes the fee
	// and inserts a pending transaction. No balance is mutated; retrying
	// produces independent pending transactions.
	Initiate(ctx context.Context, req InitiateBillPaymentRequest) (*domain.Transaction, error)
	// Confirm is the single irrevocable step: PIN-gated, lock-guarded,
	// effectively-once.
	Confirm(ctx context.Context, req ConfirmBillPaymentRequest) (*domain.Transaction, error)
}

// InitiateBillPaymentRequest holds validated input for the initiate phase.
// Either AccountNumber or BeneficiaryID identifies the target account.
type InitiateBillPaymentRequest struct {
	UserID        uuid.UUID
	CategoryCode  string
	ProviderCode  string
	PlanCode      string           // required for plan-priced categories
	Amount        decimal.Decimal  // required for amount-priced categories
	AccountNumber string
	AccountName   string
	BeneficiaryID *uuid.UUID
}

// ConfirmBillPaymentRequest holds input for the confirm phase.
type ConfirmBillPaymentRequest struct {
	UserID        uuid.UUID
	TransactionID string
	Pin           string
}

// DepositService manages deposit intents and their confirmation.
type DepositService interface {
	Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Deposit, error)
	// Confirm asserts external payment receipt for the reference; it credits
	// (or lazily creates) the fiat wallet. No debit side exists.
	Confirm(ctx context.Context, userID uuid.UUID, reference string) (*domain.Transaction, error)
}

// WithdrawalService moves wallet funds to an external bank account.
type WithdrawalService interface {
	Withdraw(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error)
}

// WithdrawalRequest carries the destination bank snapshot; it is copied into
// the transaction record at execution time, not joined by reference.
type WithdrawalRequest struct {
	UserID        uuid.UUID
	Amount        decimal.Decimal
	BankCode      string
	BankName      string
	AccountNumber string
	AccountName   string
	Pin           string
}

// CryptoQuote is a preview of a buy/sell: amounts on both legs plus the rate
// snapshot the execution will apply.
type CryptoQuote struct {
	CryptoCurrency string          `json:"crypto_currency"`
	CryptoAmount   decimal.Decimal `json:"crypto_amount"` // credited (buy) / debited (sell)
	Fee            decimal.Decimal `json:"fee"`           // in the crypto leg
	FiatAmount     decimal.Decimal `json:"fiat_amount"`   // debited (buy) / credited (sell)
	Rate           decimal.Decimal `json:"rate"`          // USD price snapshot
}

// CryptoService covers buy, sell and external send.
type CryptoService interface {
	PreviewBuy(ctx context.Context, userID uuid.UUID, fiatAmount decimal.Decimal, cryptoCurrency string) (*CryptoQuote, error)
	Buy(ctx context.Context, userID uuid.UUID, fiatAmount decimal.Decimal, cryptoCurrency string) (*domain.Transaction, error)
	PreviewSell(ctx context.Context, userID uuid.UUID, cryptoAmount decimal.Decimal, cryptoCurrency string) (*CryptoQuote, error)
	Sell(ctx context.Context, userID uuid.UUID, cryptoAmount decimal.Decimal, cryptoCurrency string) (*domain.Transaction, error)
	Send(ctx context.Context, req CryptoSendRequest) (*domain.Transaction, error)
}

// CryptoSendRequest is a withdrawal to an external address.
type CryptoSendRequest struct {
	UserID         uuid.UUID
	CryptoCurrency string
	Amount         decimal.Decimal
	Address        string
}

// CardFundingSource selects which account pays for card creation.
type CardFundingSource string

const (
	CardFundingFiat   CardFundingSource = "fiat_wallet"
	CardFundingCrypto CardFundingSource = "crypto_wallet"
)

// CardService covers virtual card lifecycle and funding.
type CardService interface {
	Create(ctx context.Context, req CreateCardRequest) (*domain.VirtualCard, *domain.Transaction, error)
	Fund(ctx context.Context, req CardFundingRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req CardWithdrawalRequest) (*domain.Transaction, error)
}

// CreateCardRequest selects the funding source for the creation fees. A
// crypto-funded creation with insufficient crypto balance fails outright;
// there is no silent fall-back to the fiat wallet.
type CreateCardRequest struct {
	UserID         uuid.UUID
	FundingSource  CardFundingSource
	CryptoCurrency string // required when FundingSource is crypto_wallet
}

// CardFundingRequest moves wallet funds onto a card (USD-denominated).
type CardFundingRequest struct {
	UserID    uuid.UUID
	CardID    uuid.UUID
	AmountUSD decimal.Decimal
}

// CardWithdrawalRequest moves card funds back into the NGN wallet.
type CardWithdrawalRequest struct {
	UserID    uuid.UUID
	CardID    uuid.UUID
	AmountUSD decimal.Decimal
}

// BeneficiaryService manages saved beneficiaries.
type BeneficiaryService interface {
	Create(ctx context.Context, b *domain.Beneficiary) (*domain.Beneficiary, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// ReportingService reads balances, history and stats.
type ReportingService interface {
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, userID uuid.UUID, period string) (*TransactionStats, error)
	GetBalances(ctx context.Context, userID uuid.UUID) (*BalanceSummary, error)
}

// BalanceSummary aggregates every account a user holds.
type BalanceSummary struct {
	Wallets        []domain.Wallet        `json:"wallets"`
	CryptoAccounts []domain.CryptoAccount `json:"crypto_accounts"`
	Cards          []domain.VirtualCard   `json:"cards"`
}

// AuthService defines registration, login and PIN management.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
	SetPin(ctx context.Context, userID uuid.UUID, pin string) error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	Password string
	FullName string
}
