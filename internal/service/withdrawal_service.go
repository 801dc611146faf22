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

// WithdrawalServiceImpl implements ports.WithdrawalService. A withdrawal is
// a single-phase movement: PIN gate, lock, debit of amount plus fee, and a
// completed transaction carrying the destination bank snapshot.
type WithdrawalServiceImpl struct {
	txRepo     ports.TransactionRepository
	ledger     *Ledger
	refGen     *RefGenerator
	fees       ports.FeePolicy
	pins       ports.PinVerifier
	notifier   ports.Notifier
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	txRepo ports.TransactionRepository,
	ledger *Ledger,
	refGen *RefGenerator,
	fees ports.FeePolicy,
	pins ports.PinVerifier,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		txRepo:     txRepo,
		ledger:     ledger,
		refGen:     refGen,
		fees:       fees,
		pins:       pins,
		notifier:   notifier,
		transactor: transactor,
		log:        log,
	}
}

// Withdraw debits the NGN wallet and records the transfer to the given bank
// account. The bank details are copied into metadata at execution time so
// the record stays accurate if the user later edits saved accounts.
func (s *WithdrawalServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawalRequest) (*domain.Transaction, error) {
	if !money.IsPositive(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.BankCode == "" || req.AccountNumber == "" {
		return nil, apperror.Validation("bank_code and account_number are required")
	}
	if err := requirePin(ctx, s.pins, req.UserID, req.Pin); err != nil {
		return nil, err
	}

	fee := s.fees.WithdrawalFee()
	total := req.Amount.Add(fee)

	transactionID, err := s.refGen.TransactionID(ctx)
	if err != nil {
		return nil, err
	}
	reference, err := s.refGen.Reference(ctx)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.ledger.DebitWallet(ctx, dbTx, req.UserID, "NGN", total); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeWithdrawal,
		Status:        domain.TransactionStatusCompleted,
		Amount:        req.Amount,
		Fee:           fee,
		TotalAmount:   total,
		Currency:      "NGN",
		Metadata: domain.Metadata{
			"bank_code":      req.BankCode,
			"bank_name":      req.BankName,
			"account_number": req.AccountNumber,
			"account_name":   req.AccountName,
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("user_id", req.UserID.String()).
		Str("total", total.String()).
		Msg("withdrawal completed")
	s.notifier.Notify(ctx, req.UserID, "Withdrawal successful",
		fmt.Sprintf("NGN %s is on its way to %s. Ref: %s", req.Amount.String(), req.AccountNumber, reference))
	return txn, nil
}
