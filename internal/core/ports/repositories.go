package ports

import (
	"context"
	"time"

	"payvault/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	SetPinHash(ctx context.Context, id uuid.UUID, pinHash string) error
}

// WalletRepository defines persistence operations for fiat wallets.
// Methods accepting pgx.Tx run inside transaction blocks; the ForUpdate
// variants acquire a row lock and MUST only be called within a transaction.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	CreateInTx(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency string) (*domain.Wallet, error)
	GetByUserAndCurrencyForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error)
	UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, lockedBalance decimal.Decimal) error
}

// CryptoAccountRepository defines persistence operations for crypto virtual
// accounts. Same locking contract as WalletRepository.
type CryptoAccountRepository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, account *domain.CryptoAccount) error
	GetByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency string) (*domain.CryptoAccount, error)
	GetByUserAndCurrencyForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string) (*domain.CryptoAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.CryptoAccount, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, balance decimal.Decimal) error
}

// CardRepository defines persistence operations for virtual cards.
type CardRepository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, card *domain.VirtualCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VirtualCard, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.VirtualCard, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.VirtualCard, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, cardID uuid.UUID, balance decimal.Decimal) error
}

// TransactionRepository defines persistence for the append-only transaction
// log. UpdateStatus is the only mutation path; GetPendingForUpdate filters on
// status inside the locking query so a lost double-confirm race returns zero
// rows instead of a stale record.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *domain.Transaction) error
	CreateInTx(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByTransactionID(ctx context.Context, userID uuid.UUID, transactionID string) (*domain.Transaction, error)
	GetPendingForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, transactionID string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus, completedAt *time.Time, extraMetadata domain.Metadata) error
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, userID uuid.UUID, periodStart *time.Time) (*TransactionStats, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	UserID   uuid.UUID
	Status   *domain.TransactionStatus
	Type     *domain.TransactionType
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TransactionStats holds aggregated per-user statistics.
type TransactionStats struct {
	TotalTransactions int64
	Completed         int64
	Pending           int64
	Failed            int64
	TotalDeposited    decimal.Decimal
	TotalSpent        decimal.Decimal
}

// DepositRepository defines persistence for deposit intents.
type DepositRepository interface {
	Create(ctx context.Context, deposit *domain.Deposit) error
	GetByReference(ctx context.Context, userID uuid.UUID, reference string) (*domain.Deposit, error)
	GetPendingByReferenceForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID, reference string) (*domain.Deposit, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID, transactionID string, confirmedAt time.Time) error
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}

// BeneficiaryRepository defines persistence for saved beneficiaries.
// Deactivate soft-deletes; FindActive matches the active-row uniqueness key.
type BeneficiaryRepository interface {
	Create(ctx context.Context, b *domain.Beneficiary) error
	GetActiveByID(ctx context.Context, userID, id uuid.UUID) (*domain.Beneficiary, error)
	FindActive(ctx context.Context, userID uuid.UUID, categoryCode, providerCode, accountNumber string) (*domain.Beneficiary, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]domain.Beneficiary, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
}

// CatalogRepository reads bill-payment reference data. Rows are immutable
// snapshots for the duration of one operation.
type CatalogRepository interface {
	GetCategory(ctx context.Context, code string) (*domain.BillCategory, error)
	GetProvider(ctx context.Context, categoryCode, providerCode string) (*domain.BillProvider, error)
	GetPlan(ctx context.Context, providerID uuid.UUID, planCode string) (*domain.BillPlan, error)
}

// CurrencyRepository reads wallet-currency rates (USD price per unit).
type CurrencyRepository interface {
	GetByCurrency(ctx context.Context, currency string) (*domain.WalletCurrency, error)
	List(ctx context.Context) ([]domain.WalletCurrency, error)
}

// RateCache is the Redis-layer cache in front of CurrencyRepository.
// Failures are best-effort: a cache error falls through to the database.
type RateCache interface {
	Get(ctx context.Context, currency string) (*domain.WalletCurrency, error) // nil, nil on miss
	Set(ctx context.Context, wc *domain.WalletCurrency, ttl time.Duration) error
}

// NotificationRepository persists best-effort user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, title, body string) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
