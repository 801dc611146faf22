package service

import (
	"context"
	"fmt"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BillPaymentServiceImpl implements the two-phase bill payment protocol.
//
// Initiate writes a pending transaction carrying a full snapshot of the
// catalog data and target account; no balance moves. Confirm is the single
// irrevocable step: PIN check outside the lock, then a status-filtered
// locked re-fetch of the pending record, debit under the same lock, and the
// one-way flip to completed. Two concurrent confirms serialize on the row
// lock; the loser's re-fetch sees no pending row and reports the transaction
// as already processed.
type BillPaymentServiceImpl struct {
	txRepo      ports.TransactionRepository
	walletRepo  ports.WalletRepository
	catalogRepo ports.CatalogRepository
	benefRepo   ports.BeneficiaryRepository
	ledger      *Ledger
	refGen      *RefGenerator
	fees        ports.FeePolicy
	pins        ports.PinVerifier
	notifier    ports.Notifier
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewBillPaymentService creates a new BillPaymentServiceImpl.
func NewBillPaymentService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	catalogRepo ports.CatalogRepository,
	benefRepo ports.BeneficiaryRepository,
	ledger *Ledger,
	refGen *RefGenerator,
	fees ports.FeePolicy,
	pins ports.PinVerifier,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *BillPaymentServiceImpl {
	return &BillPaymentServiceImpl{
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		catalogRepo: catalogRepo,
		benefRepo:   benefRepo,
		ledger:      ledger,
		refGen:      refGen,
		fees:        fees,
		pins:        pins,
		notifier:    notifier,
		transactor:  transactor,
		log:         log,
	}
}

// Initiate validates the request against the catalog, prices it, and records
// a pending transaction. Retrying creates independent pending transactions;
// only Confirm moves money.
func (s *BillPaymentServiceImpl) Initiate(ctx context.Context, req ports.InitiateBillPaymentRequest) (*domain.Transaction, error) {
	category, err := s.catalogRepo.GetCategory(ctx, req.CategoryCode)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("fetch category: %w", err))
	}
	if category == nil {
		return nil, apperror.ErrNotFound("bill category")
	}

	provider, err := s.catalogRepo.GetProvider(ctx, req.CategoryCode, req.ProviderCode)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("fetch provider: %w", err))
	}
	if provider == nil {
		return nil, apperror.ErrNotFound("bill provider")
	}

	amount := req.Amount
	currency := "NGN"
	metadata := domain.Metadata{
		"category_code": category.Code,
		"category_name": category.Name,
		"provider_code": provider.Code,
		"provider_name": provider.Name,
	}

	// Plan-priced categories take the amount from the plan; amount-priced
	// categories take it from the request.
	if category.HasPlans {
		if req.PlanCode == "" {
			return nil, apperror.Validation("plan_code is required for this category")
		}
		plan, err := s.catalogRepo.GetPlan(ctx, provider.ID, req.PlanCode)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("fetch plan: %w", err))
		}
		if plan == nil {
			return nil, apperror.ErrNotFound("bill plan")
		}
		amount = plan.Amount
		currency = plan.Currency
		metadata["plan_code"] = plan.Code
		metadata["plan_name"] = plan.Name
	} else if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	accountNumber, accountName, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	metadata["account_number"] = accountNumber
	if accountName != "" {
		metadata["account_name"] = accountName
	}
	if req.BeneficiaryID != nil {
		metadata["beneficiary_id"] = req.BeneficiaryID.String()
	}

	fee := s.fees.BillPaymentFee(amount, currency)
	total := amount.Add(fee)

	// Advisory balance check before the pending record is written, without
	// taking the row lock. Confirm re-validates under the lock; this only
	// rejects payments the wallet clearly cannot cover.
	wallet, err := s.walletRepo.GetByUserAndCurrency(ctx, req.UserID, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("fetch wallet: %w", err))
	}
	if wallet == nil || wallet.AvailableBalance().LessThan(total) {
		return nil, apperror.ErrInsufficientBalance()
	}

	transactionID, err := s.refGen.TransactionID(ctx)
	if err != nil {
		return nil, err
	}
	reference, err := s.refGen.Reference(ctx)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeBillPayment,
		Status:        domain.TransactionStatusPending,
		Amount:        amount,
		Fee:           fee,
		TotalAmount:   total,
		Currency:      currency,
		Metadata:      metadata,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.txRepo.Create(ctx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create pending transaction: %w", err))
	}

	s.log.Info().
		Str("transaction_id", txn.TransactionID).
		Str("user_id", req.UserID.String()).
		Str("provider", provider.Code).
		Str("total", txn.TotalAmount.String()).
		Msg("bill payment initiated")
	return txn, nil
}

// Confirm executes a pending bill payment exactly once.
func (s *BillPaymentServiceImpl) Confirm(ctx context.Context, req ports.ConfirmBillPaymentRequest) (*domain.Transaction, error) {
	// PIN gate runs before any lock so a slow argon2 verification never
	// extends row-lock hold time.
	if err := requirePin(ctx, s.pins, req.UserID, req.Pin); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetPendingForUpdate(ctx, dbTx, req.UserID, req.TransactionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock pending transaction: %w", err))
	}
	if txn == nil {
		// Either never existed or already settled; a plain read tells us which.
		return nil, s.classifyMissingPending(ctx, req.UserID, req.TransactionID)
	}
	if txn.Type != domain.TransactionTypeBillPayment {
		return nil, apperror.ErrNotFound("bill payment transaction")
	}
	if !txn.Status.CanTransitionTo(domain.TransactionStatusCompleted) {
		return nil, apperror.ErrAlreadyProcessed()
	}

	// Debit under the same lock scope. Insufficient balance aborts the
	// confirm and leaves the transaction pending for a later retry.
	if _, err := s.ledger.DebitWallet(ctx, dbTx, req.UserID, txn.Currency, txn.TotalAmount); err != nil {
		return nil, err
	}

	extra := domain.Metadata{}
	if txn.Metadata["category_code"] == domain.BillCategoryElectricity {
		token, err := s.refGen.RechargeToken()
		if err != nil {
			return nil, err
		}
		extra["recharge_token"] = token
	}

	now := time.Now().UTC()
	if err := s.txRepo.UpdateStatus(ctx, dbTx, txn.ID, domain.TransactionStatusCompleted, &now, extra); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("complete transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	txn.Status = domain.TransactionStatusCompleted
	txn.CompletedAt = &now
	for k, v := range extra {
		txn.Metadata[k] = v
	}

	s.log.Info().
		Str("transaction_id", txn.TransactionID).
		Str("user_id", req.UserID.String()).
		Msg("bill payment completed")
	s.notifier.Notify(ctx, req.UserID, "Bill payment successful",
		fmt.Sprintf("Your payment of %s %s was successful. Ref: %s", txn.Currency, txn.Amount.String(), txn.Reference))
	return txn, nil
}

// classifyMissingPending disambiguates a locked fetch that returned no
// pending row: the transaction either does not exist for this user or has
// already left the pending state.
func (s *BillPaymentServiceImpl) classifyMissingPending(ctx context.Context, userID uuid.UUID, transactionID string) error {
	existing, err := s.txRepo.GetByTransactionID(ctx, userID, transactionID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("re-read transaction: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("transaction")
	}
	return apperror.ErrAlreadyProcessed()
}

func (s *BillPaymentServiceImpl) resolveTarget(ctx context.Context, req ports.InitiateBillPaymentRequest) (accountNumber, accountName string, err error) {
	if req.BeneficiaryID != nil {
		b, err := s.benefRepo.GetActiveByID(ctx, req.UserID, *req.BeneficiaryID)
		if err != nil {
			return "", "", apperror.ErrDatabaseError(fmt.Errorf("fetch beneficiary: %w", err))
		}
		if b == nil {
			return "", "", apperror.ErrNotFound("beneficiary")
		}
		return b.AccountNumber, b.AccountName, nil
	}
	if req.AccountNumber == "" {
		return "", "", apperror.Validation("account_number or beneficiary_id is required")
	}
	return req.AccountNumber, req.AccountName, nil
}
