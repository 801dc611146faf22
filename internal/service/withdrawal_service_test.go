package service

import (
	"context"
	"testing"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type withdrawalTestDeps struct {
	svc        *WithdrawalServiceImpl
	txRepo     *mocks.MockTransactionRepository
	walletRepo *mocks.MockWalletRepository
	pins       *mocks.MockPinVerifier
	notifier   *mocks.MockNotifier
	transactor *mocks.MockDBTransactor
}

func setupWithdrawalService(t *testing.T) *withdrawalTestDeps {
	ctrl := gomock.NewController(t)
	d := &withdrawalTestDeps{
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		pins:       mocks.NewMockPinVerifier(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
	}
	ledger := NewLedger(d.walletRepo, mocks.NewMockCryptoAccountRepository(ctrl), mocks.NewMockCardRepository(ctrl))
	refGen := NewRefGenerator(d.txRepo, mocks.NewMockDepositRepository(ctrl))
	d.svc = NewWithdrawalService(
		d.txRepo, ledger, refGen, newTestFeePolicy(t),
		d.pins, d.notifier, d.transactor, zerolog.Nop(),
	)
	return d
}

func withdrawalRequest(userID uuid.UUID) ports.WithdrawalRequest {
	return ports.WithdrawalRequest{
		UserID:        userID,
		Amount:        decimal.RequireFromString("3000"),
		BankCode:      "058",
		BankName:      "GTBank",
		AccountNumber: "0123456789",
		AccountName:   "Ada Obi",
		Pin:           "1234",
	}
}

func TestWithdrawalService_Withdraw_Success(t *testing.T) {
	d := setupWithdrawalService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("10000"),
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.txRepo.EXPECT().ExistsByTransactionID(ctx, gomock.Any()).Return(false, nil)
	d.txRepo.EXPECT().ExistsByReference(ctx, gomock.Any()).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance, _ decimal.Decimal) error {
			// 10000 - (3000 + 200)
			assert.True(t, balance.Equal(decimal.RequireFromString("6800")), "balance %s", balance)
			return nil
		})
	d.txRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	txn, err := d.svc.Withdraw(ctx, withdrawalRequest(userID))
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeWithdrawal, txn.Type)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.True(t, txn.Fee.Equal(decimal.RequireFromString("200")))
	assert.Equal(t, "0123456789", txn.Metadata["account_number"])
	assert.Equal(t, "GTBank", txn.Metadata["bank_name"])
}

func TestWithdrawalService_Withdraw_InsufficientBalance(t *testing.T) {
	d := setupWithdrawalService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("3100"), // total needed is 3200
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.txRepo.EXPECT().ExistsByTransactionID(ctx, gomock.Any()).Return(false, nil)
	d.txRepo.EXPECT().ExistsByReference(ctx, gomock.Any()).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)

	_, err := d.svc.Withdraw(ctx, withdrawalRequest(userID))
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestWithdrawalService_Withdraw_LockedBalanceCounts(t *testing.T) {
	d := setupWithdrawalService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:            uuid.New(),
		UserID:        userID,
		Currency:      "NGN",
		Balance:       decimal.RequireFromString("5000"),
		LockedBalance: decimal.RequireFromString("2000"), // available 3000 < 3200
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.txRepo.EXPECT().ExistsByTransactionID(ctx, gomock.Any()).Return(false, nil)
	d.txRepo.EXPECT().ExistsByReference(ctx, gomock.Any()).Return(false, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)

	_, err := d.svc.Withdraw(ctx, withdrawalRequest(userID))
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestWithdrawalService_Withdraw_MissingBankDetails(t *testing.T) {
	d := setupWithdrawalService(t)
	req := withdrawalRequest(uuid.New())
	req.BankCode = ""

	_, err := d.svc.Withdraw(context.Background(), req)
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

func TestWithdrawalService_Withdraw_InvalidPin(t *testing.T) {
	d := setupWithdrawalService(t)
	ctx := context.Background()
	userID := uuid.New()

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(false, nil)

	_, err := d.svc.Withdraw(ctx, withdrawalRequest(userID))
	require.Error(t, err)
	assertAppError(t, err, "PIN_002")
}
