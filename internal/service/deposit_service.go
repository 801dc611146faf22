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
	"github.com/shopspring/decimal"
)

// DepositServiceImpl implements ports.DepositService. A deposit intent lives
// outside the transaction log until confirmation; confirming spawns exactly
// one completed deposit transaction and links it back to the intent.
type DepositServiceImpl struct {
	depRepo    ports.DepositRepository
	txRepo     ports.TransactionRepository
	ledger     *Ledger
	refGen     *RefGenerator
	fees       ports.FeePolicy
	notifier   ports.Notifier
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewDepositService creates a new DepositServiceImpl.
func NewDepositService(
	depRepo ports.DepositRepository,
	txRepo ports.TransactionRepository,
	ledger *Ledger,
	refGen *RefGenerator,
	fees ports.FeePolicy,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *DepositServiceImpl {
	return &DepositServiceImpl{
		depRepo:    depRepo,
		txRepo:     txRepo,
		ledger:     ledger,
		refGen:     refGen,
		fees:       fees,
		notifier:   notifier,
		transactor: transactor,
		log:        log,
	}
}

// Initiate records a deposit intent. The user transfers TotalAmount to the
// virtual account referencing DepositReference; nothing is credited yet.
func (s *DepositServiceImpl) Initiate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Deposit, error) {
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}

	reference, err := s.refGen.DepositReference(ctx)
	if err != nil {
		return nil, err
	}

	fee := s.fees.DepositFee()
	deposit := &domain.Deposit{
		ID:               uuid.New(),
		UserID:           userID,
		DepositReference: reference,
		Amount:           amount,
		Fee:              fee,
		TotalAmount:      amount.Add(fee),
		Currency:         "NGN",
		Status:           domain.DepositStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.depRepo.Create(ctx, deposit); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create deposit: %w", err))
	}

	s.log.Info().
		Str("deposit_reference", reference).
		Str("user_id", userID.String()).
		Str("total", deposit.TotalAmount.String()).
		Msg("deposit initiated")
	return deposit, nil
}

// Confirm asserts receipt of the external payment and credits the wallet.
// The pending intent, the wallet credit and the spawned transaction commit
// atomically; pending to completed is one-way.
func (s *DepositServiceImpl) Confirm(ctx context.Context, userID uuid.UUID, reference string) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	deposit, err := s.depRepo.GetPendingByReferenceForUpdate(ctx, dbTx, userID, reference)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock pending deposit: %w", err))
	}
	if deposit == nil {
		existing, err := s.depRepo.GetByReference(ctx, userID, reference)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("re-read deposit: %w", err))
		}
		if existing == nil {
			return nil, apperror.ErrNotFound("deposit")
		}
		return nil, apperror.ErrAlreadyProcessed()
	}

	// Credit side only; the fee was collected on top of the transferred
	// amount, so the wallet receives the face amount.
	if _, err := s.ledger.CreditWallet(ctx, dbTx, userID, deposit.Currency, deposit.Amount); err != nil {
		return nil, err
	}

	transactionID, err := s.refGen.TransactionID(ctx)
	if err != nil {
		return nil, err
	}
	txRef, err := s.refGen.Reference(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     txRef,
		UserID:        userID,
		Type:          domain.TransactionTypeDeposit,
		Status:        domain.TransactionStatusCompleted,
		Amount:        deposit.Amount,
		Fee:           deposit.Fee,
		TotalAmount:   deposit.TotalAmount,
		Currency:      deposit.Currency,
		Metadata: domain.Metadata{
			"deposit_reference": deposit.DepositReference,
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create deposit transaction: %w", err))
	}
	if err := s.depRepo.MarkCompleted(ctx, dbTx, deposit.ID, transactionID, now); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("complete deposit: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("deposit_reference", reference).
		Str("transaction_id", transactionID).
		Str("user_id", userID.String()).
		Msg("deposit confirmed")
	s.notifier.Notify(ctx, userID, "Deposit received",
		fmt.Sprintf("Your wallet was credited with %s %s.", txn.Currency, txn.Amount.String()))
	return txn, nil
}
