package dto

// Monetary amounts travel as decimal strings so values round-trip exactly;
// the handlers parse them with ParseAmount before touching any service.

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	FullName string `json:"full_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued JWT.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// SetPinRequest sets the 4-digit transaction PIN.
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required,len=4,numeric"`
}

// DepositInitiateRequest creates a pending deposit intent.
type DepositInitiateRequest struct {
	Amount string `json:"amount" binding:"required,amount"`
}

// DepositConfirmRequest confirms a pending deposit by its reference.
type DepositConfirmRequest struct {
	Reference string `json:"reference" binding:"required,safe_id"`
}

// WithdrawalRequest moves wallet funds to an external bank account.
type WithdrawalRequest struct {
	Amount        string `json:"amount" binding:"required,amount"`
	BankCode      string `json:"bank_code" binding:"required,max=10"`
	BankName      string `json:"bank_name" binding:"required,max=100"`
	AccountNumber string `json:"account_number" binding:"required,max=20"`
	AccountName   string `json:"account_name" binding:"required,max=100"`
	Pin           string `json:"pin" binding:"required,len=4,numeric"`
}

// BillPaymentInitiateRequest starts the two-phase bill payment. Either
// account_number or beneficiary_id identifies the target; amount is required
// only for amount-priced categories, plan_code only for plan-priced ones.
type BillPaymentInitiateRequest struct {
	CategoryCode  string `json:"category_code" binding:"required,safe_id"`
	ProviderCode  string `json:"provider_code" binding:"required,safe_id"`
	PlanCode      string `json:"plan_code" binding:"omitempty,safe_id"`
	Amount        string `json:"amount" binding:"omitempty,amount"`
	AccountNumber string `json:"account_number" binding:"omitempty,max=20"`
	AccountName   string `json:"account_name" binding:"omitempty,max=100"`
	BeneficiaryID string `json:"beneficiary_id" binding:"omitempty,uuid"`
}

// BillPaymentConfirmRequest executes a pending bill payment.
type BillPaymentConfirmRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,safe_id"`
	Pin           string `json:"pin" binding:"required,len=4,numeric"`
}

// CryptoTradeRequest is shared by preview-buy/buy (amount in NGN) and
// preview-sell/sell (amount in the crypto currency).
type CryptoTradeRequest struct {
	Amount         string `json:"amount" binding:"required,amount"`
	CryptoCurrency string `json:"crypto_currency" binding:"required,uppercase,max=10"`
}

// CryptoSendRequest sends crypto to an external address.
type CryptoSendRequest struct {
	Amount         string `json:"amount" binding:"required,amount"`
	CryptoCurrency string `json:"crypto_currency" binding:"required,uppercase,max=10"`
	Address        string `json:"address" binding:"required,max=128"`
}

// CardCreateRequest issues a new virtual card.
type CardCreateRequest struct {
	FundingSource  string `json:"funding_source" binding:"required,oneof=fiat_wallet crypto_wallet"`
	CryptoCurrency string `json:"crypto_currency" binding:"omitempty,uppercase,max=10"`
}

// CardAmountRequest funds or withdraws from a card (USD).
type CardAmountRequest struct {
	CardID    string `json:"card_id" binding:"required,uuid"`
	AmountUSD string `json:"amount_usd" binding:"required,amount"`
}

// BeneficiaryCreateRequest saves a bill-payment beneficiary.
type BeneficiaryCreateRequest struct {
	CategoryCode  string `json:"category_code" binding:"required,safe_id"`
	ProviderCode  string `json:"provider_code" binding:"required,safe_id"`
	AccountNumber string `json:"account_number" binding:"required,max=20"`
	AccountName   string `json:"account_name" binding:"required,max=100"`
}

// TransactionListQuery holds the history filters, bound from query params.
type TransactionListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
	Type     string `form:"type" binding:"omitempty,safe_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ListResponse wraps a paginated collection.
type ListResponse struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
