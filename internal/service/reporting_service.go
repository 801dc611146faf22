package service

import (
	"context"
	"fmt"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"

	"github.com/google/uuid"
)

// ReportingServiceImpl implements ports.ReportingService with plain reads;
// nothing here takes a lock or mutates state.
type ReportingServiceImpl struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	cryptoRepo ports.CryptoAccountRepository
	cardRepo   ports.CardRepository
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	cryptoRepo ports.CryptoAccountRepository,
	cardRepo ports.CardRepository,
) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		cryptoRepo: cryptoRepo,
		cardRepo:   cardRepo,
	}
}

// ListTransactions returns a filtered, paginated slice of the user's
// transaction history plus the unpaginated total.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	items, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}
	return items, total, nil
}

// GetStats aggregates the user's transactions over a period: "week",
// "month", "year" or "all".
func (s *ReportingServiceImpl) GetStats(ctx context.Context, userID uuid.UUID, period string) (*ports.TransactionStats, error) {
	var periodStart *time.Time
	now := time.Now().UTC()
	switch period {
	case "week":
		t := now.AddDate(0, 0, -7)
		periodStart = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		periodStart = &t
	case "year":
		t := now.AddDate(-1, 0, 0)
		periodStart = &t
	case "", "all":
		// no lower bound
	default:
		return nil, apperror.Validation("period must be one of week, month, year, all")
	}

	stats, err := s.txRepo.GetStats(ctx, userID, periodStart)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("transaction stats: %w", err))
	}
	return stats, nil
}

// GetBalances returns every account the user holds.
func (s *ReportingServiceImpl) GetBalances(ctx context.Context, userID uuid.UUID) (*ports.BalanceSummary, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}
	cryptoAccounts, err := s.cryptoRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list crypto accounts: %w", err))
	}
	cards, err := s.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list cards: %w", err))
	}
	return &ports.BalanceSummary{
		Wallets:        wallets,
		CryptoAccounts: cryptoAccounts,
		Cards:          cards,
	}, nil
}
