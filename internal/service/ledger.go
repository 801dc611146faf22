package service

import (
	"context"
	"fmt"
	"strings"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Ledger bundles the balance-mutation primitives every composite money
// movement is built from. Each primitive locks the row with FOR UPDATE,
// re-reads the current balance under that lock, applies the delta and writes
// the result. Blind overwrites from stale reads are therefore impossible.
//
// Callers own the surrounding pgx.Tx and the lock order: the funding
// account is always locked before the destination account.
type Ledger struct {
	walletRepo ports.WalletRepository
	cryptoRepo ports.CryptoAccountRepository
	cardRepo   ports.CardRepository
}

// NewLedger creates a new Ledger.
func NewLedger(
	walletRepo ports.WalletRepository,
	cryptoRepo ports.CryptoAccountRepository,
	cardRepo ports.CardRepository,
) *Ledger {
	return &Ledger{
		walletRepo: walletRepo,
		cryptoRepo: cryptoRepo,
		cardRepo:   cardRepo,
	}
}

// DebitWallet locks the user's wallet in the given currency and subtracts
// amount. Fails with InsufficientBalance when the available balance (balance
// minus locked) does not cover the amount.
func (l *Ledger) DebitWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) (*domain.Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	wallet, err := l.walletRepo.GetByUserAndCurrencyForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if wallet.AvailableBalance().LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	wallet.Balance = wallet.Balance.Sub(amount)
	if err := l.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, wallet.LockedBalance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("debit wallet: %w", err))
	}
	return wallet, nil
}

// CreditWallet locks the user's wallet and adds amount. When the wallet does
// not exist yet it is created inside the same transaction, so a first-ever
// deposit and the wallet row commit or roll back together.
func (l *Ledger) CreditWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) (*domain.Wallet, error) {
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	wallet, err := l.walletRepo.GetByUserAndCurrencyForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		wallet = domain.NewWallet(userID, currency)
		wallet.Balance = amount
		if err := l.walletRepo.CreateInTx(ctx, tx, wallet); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
		}
		return wallet, nil
	}
	wallet.Balance = wallet.Balance.Add(amount)
	if err := l.walletRepo.UpdateBalances(ctx, tx, wallet.ID, wallet.Balance, wallet.LockedBalance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("credit wallet: %w", err))
	}
	return wallet, nil
}

// DebitCrypto locks the user's crypto account and subtracts amount.
func (l *Ledger) DebitCrypto(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency string, amount decimal.Decimal) (*domain.CryptoAccount, error) {
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	account, err := l.cryptoRepo.GetByUserAndCurrencyForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock crypto account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("crypto account")
	}
	if account.Balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	account.Balance = account.Balance.Sub(amount)
	if err := l.cryptoRepo.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("debit crypto account: %w", err))
	}
	return account, nil
}

// CreditCrypto locks the user's crypto account and adds amount. A missing
// account is provisioned in-transaction on the given blockchain.
func (l *Ledger) CreditCrypto(ctx context.Context, tx pgx.Tx, userID uuid.UUID, blockchain, currency string, amount decimal.Decimal) (*domain.CryptoAccount, error) {
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	account, err := l.cryptoRepo.GetByUserAndCurrencyForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock crypto account: %w", err))
	}
	if account == nil {
		address, err := newCryptoAddress()
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		account = domain.NewCryptoAccount(userID, blockchain, currency, address)
		account.Balance = amount
		if err := l.cryptoRepo.CreateInTx(ctx, tx, account); err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("create crypto account: %w", err))
		}
		return account, nil
	}
	account.Balance = account.Balance.Add(amount)
	if err := l.cryptoRepo.UpdateBalance(ctx, tx, account.ID, account.Balance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("credit crypto account: %w", err))
	}
	return account, nil
}

// DebitCard locks the card, verifies ownership and subtracts amount.
func (l *Ledger) DebitCard(ctx context.Context, tx pgx.Tx, userID, cardID uuid.UUID, amount decimal.Decimal) (*domain.VirtualCard, error) {
	card, err := l.lockOwnedCard(ctx, tx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if card.Balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	card.Balance = card.Balance.Sub(amount)
	if err := l.cardRepo.UpdateBalance(ctx, tx, card.ID, card.Balance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("debit card: %w", err))
	}
	return card, nil
}

// CreditCard locks the card, verifies ownership and adds amount.
func (l *Ledger) CreditCard(ctx context.Context, tx pgx.Tx, userID, cardID uuid.UUID, amount decimal.Decimal) (*domain.VirtualCard, error) {
	card, err := l.lockOwnedCard(ctx, tx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if !money.IsPositive(amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	card.Balance = card.Balance.Add(amount)
	if err := l.cardRepo.UpdateBalance(ctx, tx, card.ID, card.Balance); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("credit card: %w", err))
	}
	return card, nil
}

func (l *Ledger) lockOwnedCard(ctx context.Context, tx pgx.Tx, userID, cardID uuid.UUID) (*domain.VirtualCard, error) {
	card, err := l.cardRepo.GetByIDForUpdate(ctx, tx, cardID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock card: %w", err))
	}
	// Ownership mismatch reads as not-found so card IDs cannot be probed.
	if card == nil || card.UserID != userID {
		return nil, apperror.ErrNotFound("card")
	}
	return card, nil
}

// newCryptoAddress generates a synthetic deposit address for a provisioned
// account. Real address derivation lives with the custody integration.
func newCryptoAddress() (string, error) {
	h, err := randomHex(20)
	if err != nil {
		return "", err
	}
	return "0x" + strings.ToLower(h), nil
}
