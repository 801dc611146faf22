package service

import (
	"context"
	"testing"
	"time"

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

type cryptoTestDeps struct {
	svc          *CryptoServiceImpl
	txRepo       *mocks.MockTransactionRepository
	walletRepo   *mocks.MockWalletRepository
	cryptoRepo   *mocks.MockCryptoAccountRepository
	currencyRepo *mocks.MockCurrencyRepository
	cache        *mocks.MockRateCache
	notifier     *mocks.MockNotifier
	transactor   *mocks.MockDBTransactor
}

func setupCryptoService(t *testing.T) *cryptoTestDeps {
	ctrl := gomock.NewController(t)
	d := &cryptoTestDeps{
		txRepo:       mocks.NewMockTransactionRepository(ctrl),
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		cryptoRepo:   mocks.NewMockCryptoAccountRepository(ctrl),
		currencyRepo: mocks.NewMockCurrencyRepository(ctrl),
		cache:        mocks.NewMockRateCache(ctrl),
		notifier:     mocks.NewMockNotifier(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
	}
	ledger := NewLedger(d.walletRepo, d.cryptoRepo, mocks.NewMockCardRepository(ctrl))
	refGen := NewRefGenerator(d.txRepo, mocks.NewMockDepositRepository(ctrl))
	rates := NewRateResolver(d.currencyRepo, d.cache,
		decimal.RequireFromString("1500"), 2*time.Minute, zerolog.Nop())
	d.svc = NewCryptoService(
		d.txRepo, d.currencyRepo, ledger, refGen,
		newTestFeePolicy(t), rates, d.notifier, d.transactor, zerolog.Nop(),
	)
	return d
}

func (d *cryptoTestDeps) expectFreshIDs(ctx context.Context) {
	d.txRepo.EXPECT().ExistsByTransactionID(ctx, gomock.Any()).Return(false, nil)
	d.txRepo.EXPECT().ExistsByReference(ctx, gomock.Any()).Return(false, nil)
}

func TestCryptoService_PreviewBuy(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()

	d.cache.EXPECT().Get(ctx, "BTC").Return(btcCurrency(), nil)

	// 750,000 NGN -> 500 USD -> 0.01 BTC gross; 1% fee leaves 0.0099.
	quote, err := d.svc.PreviewBuy(ctx, uuid.New(), decimal.RequireFromString("750000"), "BTC")
	require.NoError(t, err)
	assert.True(t, quote.Fee.Equal(decimal.RequireFromString("0.0001")), "fee %s", quote.Fee)
	assert.True(t, quote.CryptoAmount.Equal(decimal.RequireFromString("0.0099")), "amount %s", quote.CryptoAmount)
	assert.True(t, quote.Rate.Equal(decimal.RequireFromString("50000")))
}

func TestCryptoService_Buy_Success(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("1000000"),
	}
	account := &domain.CryptoAccount{
		ID:         uuid.New(),
		UserID:     userID,
		Blockchain: "bitcoin",
		Currency:   "BTC",
		Balance:    decimal.Zero,
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance, _ decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("250000")), "balance %s", balance)
			return nil
		})
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(account, nil)
	d.cryptoRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("0.0099")), "balance %s", balance)
			return nil
		})
	d.txRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	txn, err := d.svc.Buy(ctx, userID, decimal.RequireFromString("750000"), "BTC")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCryptoBuy, txn.Type)
	assert.Equal(t, "BTC", txn.Currency)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("0.0099")))
	assert.Equal(t, "50000", txn.Metadata["rate_usd"])
}

func TestCryptoService_Buy_ProvisionsAccount(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("1000000"),
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).Return(nil)
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(nil, nil)
	d.cryptoRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, a *domain.CryptoAccount) error {
			assert.Equal(t, "bitcoin", a.Blockchain)
			assert.NotEmpty(t, a.Address)
			assert.True(t, a.Balance.Equal(decimal.RequireFromString("0.0099")))
			return nil
		})
	d.txRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	_, err := d.svc.Buy(ctx, userID, decimal.RequireFromString("750000"), "BTC")
	require.NoError(t, err)
}

func TestCryptoService_Buy_InsufficientFiat(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("100"),
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)

	_, err := d.svc.Buy(ctx, userID, decimal.RequireFromString("750000"), "BTC")
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestCryptoService_PreviewSell(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()

	d.cache.EXPECT().Get(ctx, "BTC").Return(btcCurrency(), nil)

	// 0.01 BTC, 1% fee -> 0.0099 BTC net -> 495 USD -> 742,500 NGN.
	quote, err := d.svc.PreviewSell(ctx, uuid.New(), decimal.RequireFromString("0.01"), "BTC")
	require.NoError(t, err)
	assert.True(t, quote.Fee.Equal(decimal.RequireFromString("0.0001")))
	assert.True(t, quote.FiatAmount.Equal(decimal.RequireFromString("742500")), "fiat %s", quote.FiatAmount)
}

func TestCryptoService_Sell_Success(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	account := &domain.CryptoAccount{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "BTC",
		Balance:  decimal.RequireFromString("0.05"),
	}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.Zero,
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(account, nil)
	d.cryptoRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("0.04")), "balance %s", balance)
			return nil
		})
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance, _ decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("742500")), "balance %s", balance)
			return nil
		})
	d.txRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	txn, err := d.svc.Sell(ctx, userID, decimal.RequireFromString("0.01"), "BTC")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCryptoSell, txn.Type)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("0.01")))
}

func TestCryptoService_Sell_InsufficientCrypto(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	account := &domain.CryptoAccount{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "BTC",
		Balance:  decimal.RequireFromString("0.001"),
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(account, nil)

	_, err := d.svc.Sell(ctx, userID, decimal.RequireFromString("0.01"), "BTC")
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestCryptoService_Send_Success(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	account := &domain.CryptoAccount{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "BTC",
		Balance:  decimal.RequireFromString("0.01"),
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(account, nil)
	d.cryptoRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("0.00494")), "balance %s", balance)
			return nil
		})
	d.txRepo.EXPECT().CreateInTx(ctx, tx, gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	// 0.005 BTC requested; the flat $3 network fee is 0.00006 BTC at 50,000
	// and is charged on top of the requested amount.
	txn, err := d.svc.Send(ctx, ports.CryptoSendRequest{
		UserID:         userID,
		CryptoCurrency: "BTC",
		Amount:         decimal.RequireFromString("0.005"),
		Address:        "bc1qexampleaddress",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCryptoWithdrawal, txn.Type)
	assert.True(t, txn.Fee.Equal(decimal.RequireFromString("0.00006")), "fee %s", txn.Fee)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("0.005")), "amount %s", txn.Amount)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("0.00506")), "total %s", txn.TotalAmount)
	assert.Regexp(t, `^0x[0-9a-f]{64}$`, txn.Metadata["tx_hash"])
}

func TestCryptoService_Send_ExactBalanceCannotCoverFee(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}
	account := &domain.CryptoAccount{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "BTC",
		Balance:  decimal.RequireFromString("0.005"),
	}

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "BTC").Return(btcCurrency(), nil)
	d.expectFreshIDs(ctx)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.cryptoRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "BTC").Return(account, nil)

	// The balance covers the amount but not the network fee on top.
	_, err := d.svc.Send(ctx, ports.CryptoSendRequest{
		UserID:         userID,
		CryptoCurrency: "BTC",
		Amount:         decimal.RequireFromString("0.005"),
		Address:        "bc1qexampleaddress",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestCryptoService_Send_MissingAddress(t *testing.T) {
	d := setupCryptoService(t)

	_, err := d.svc.Send(context.Background(), ports.CryptoSendRequest{
		UserID:         uuid.New(),
		CryptoCurrency: "BTC",
		Amount:         decimal.RequireFromString("0.01"),
	})
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

func TestCryptoService_UnsupportedCurrency(t *testing.T) {
	d := setupCryptoService(t)
	ctx := context.Background()

	d.currencyRepo.EXPECT().GetByCurrency(ctx, "DOGE").Return(nil, nil)

	_, err := d.svc.Buy(ctx, uuid.New(), decimal.RequireFromString("1000"), "DOGE")
	require.Error(t, err)
	assertAppError(t, err, "LED_006")
}
