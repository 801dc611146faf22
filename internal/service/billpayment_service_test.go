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

type billPaymentTestDeps struct {
	svc         *BillPaymentServiceImpl
	txRepo      *mocks.MockTransactionRepository
	walletRepo  *mocks.MockWalletRepository
	catalogRepo *mocks.MockCatalogRepository
	benefRepo   *mocks.MockBeneficiaryRepository
	pins        *mocks.MockPinVerifier
	notifier    *mocks.MockNotifier
	transactor  *mocks.MockDBTransactor
}

func setupBillPaymentService(t *testing.T) *billPaymentTestDeps {
	ctrl := gomock.NewController(t)
	d := &billPaymentTestDeps{
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		walletRepo:  mocks.NewMockWalletRepository(ctrl),
		catalogRepo: mocks.NewMockCatalogRepository(ctrl),
		benefRepo:   mocks.NewMockBeneficiaryRepository(ctrl),
		pins:        mocks.NewMockPinVerifier(ctrl),
		notifier:    mocks.NewMockNotifier(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
	}
	ledger := NewLedger(d.walletRepo, mocks.NewMockCryptoAccountRepository(ctrl), mocks.NewMockCardRepository(ctrl))
	refGen := NewRefGenerator(d.txRepo, mocks.NewMockDepositRepository(ctrl))
	d.svc = NewBillPaymentService(
		d.txRepo, d.walletRepo, d.catalogRepo, d.benefRepo,
		ledger, refGen, newTestFeePolicy(t), d.pins, d.notifier, d.transactor,
		zerolog.Nop(),
	)
	return d
}

func airtimeCatalog() (*domain.BillCategory, *domain.BillProvider) {
	provider := &domain.BillProvider{
		ID:           uuid.New(),
		CategoryCode: "airtime",
		Code:         "mtn",
		Name:         "MTN",
	}
	return &domain.BillCategory{Code: "airtime", Name: "Airtime"}, provider
}

func expectFreshIDs(d *billPaymentTestDeps) {
	d.txRepo.EXPECT().ExistsByTransactionID(gomock.Any(), gomock.Any()).Return(false, nil)
	d.txRepo.EXPECT().ExistsByReference(gomock.Any(), gomock.Any()).Return(false, nil)
}

func expectNGNWallet(ctx context.Context, d *billPaymentTestDeps, userID uuid.UUID, balance string) {
	d.walletRepo.EXPECT().GetByUserAndCurrency(ctx, userID, "NGN").Return(&domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString(balance),
	}, nil)
}

func TestBillPaymentService_Initiate_AmountPriced(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	category, provider := airtimeCatalog()

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "mtn").Return(provider, nil)
	expectNGNWallet(ctx, d, userID, "10000")
	expectFreshIDs(d)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		Amount:        decimal.RequireFromString("5000"),
		AccountNumber: "08031234567",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
	assert.Equal(t, domain.TransactionTypeBillPayment, txn.Type)
	assert.True(t, txn.Fee.Equal(decimal.RequireFromString("50")), "fee %s", txn.Fee)
	assert.True(t, txn.TotalAmount.Equal(decimal.RequireFromString("5050")))
	assert.Equal(t, "mtn", txn.Metadata["provider_code"])
	assert.Equal(t, "08031234567", txn.Metadata["account_number"])
	assert.Nil(t, txn.CompletedAt)
}

func TestBillPaymentService_Initiate_SmallAmountHitsMinimumFee(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	category, provider := airtimeCatalog()

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "mtn").Return(provider, nil)
	expectNGNWallet(ctx, d, userID, "1000")
	expectFreshIDs(d)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		Amount:        decimal.RequireFromString("50"),
		AccountNumber: "08031234567",
	})
	require.NoError(t, err)
	assert.True(t, txn.Fee.Equal(decimal.RequireFromString("20")), "fee %s", txn.Fee)
}

func TestBillPaymentService_Initiate_PlanPriced(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	provider := &domain.BillProvider{ID: uuid.New(), CategoryCode: "data", Code: "mtn", Name: "MTN"}
	plan := &domain.BillPlan{
		ID:         uuid.New(),
		ProviderID: provider.ID,
		Code:       "2gb-30d",
		Name:       "2GB Monthly",
		Amount:     decimal.RequireFromString("1500"),
		Currency:   "NGN",
	}

	d.catalogRepo.EXPECT().GetCategory(ctx, "data").Return(&domain.BillCategory{Code: "data", Name: "Data", HasPlans: true}, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "data", "mtn").Return(provider, nil)
	d.catalogRepo.EXPECT().GetPlan(ctx, provider.ID, "2gb-30d").Return(plan, nil)
	expectNGNWallet(ctx, d, userID, "5000")
	expectFreshIDs(d)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "data",
		ProviderCode:  "mtn",
		PlanCode:      "2gb-30d",
		AccountNumber: "08031234567",
	})
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(plan.Amount))
	assert.Equal(t, "2gb-30d", txn.Metadata["plan_code"])
}

func TestBillPaymentService_Initiate_PlanRequired(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	provider := &domain.BillProvider{ID: uuid.New(), CategoryCode: "data", Code: "mtn"}

	d.catalogRepo.EXPECT().GetCategory(ctx, "data").Return(&domain.BillCategory{Code: "data", HasPlans: true}, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "data", "mtn").Return(provider, nil)

	_, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        uuid.New(),
		CategoryCode:  "data",
		ProviderCode:  "mtn",
		AccountNumber: "08031234567",
	})
	require.Error(t, err)
	assertAppError(t, err, "VAL_001")
}

func TestBillPaymentService_Initiate_UnknownProvider(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	category, _ := airtimeCatalog()

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "nope").Return(nil, nil)

	_, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        uuid.New(),
		CategoryCode:  "airtime",
		ProviderCode:  "nope",
		Amount:        decimal.RequireFromString("100"),
		AccountNumber: "08031234567",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_002")
}

func TestBillPaymentService_Initiate_FromBeneficiary(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	category, provider := airtimeCatalog()
	benefID := uuid.New()
	benef := &domain.Beneficiary{
		ID:            benefID,
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		AccountNumber: "08039876543",
		AccountName:   "Ada Obi",
		IsActive:      true,
	}

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "mtn").Return(provider, nil)
	d.benefRepo.EXPECT().GetActiveByID(ctx, userID, benefID).Return(benef, nil)
	expectNGNWallet(ctx, d, userID, "5000")
	expectFreshIDs(d)
	d.txRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	txn, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		Amount:        decimal.RequireFromString("2000"),
		BeneficiaryID: &benefID,
	})
	require.NoError(t, err)
	assert.Equal(t, "08039876543", txn.Metadata["account_number"])
	assert.Equal(t, "Ada Obi", txn.Metadata["account_name"])
	assert.Equal(t, benefID.String(), txn.Metadata["beneficiary_id"])
}

func TestBillPaymentService_Initiate_InsufficientBalanceFailsFast(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	category, provider := airtimeCatalog()

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "mtn").Return(provider, nil)
	// Wallet holds 500 against a 5000 + 50 fee payment; no pending record
	// may be created.
	expectNGNWallet(ctx, d, userID, "500")

	_, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		Amount:        decimal.RequireFromString("5000"),
		AccountNumber: "08031234567",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestBillPaymentService_Initiate_MissingWalletFailsFast(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	category, provider := airtimeCatalog()

	d.catalogRepo.EXPECT().GetCategory(ctx, "airtime").Return(category, nil)
	d.catalogRepo.EXPECT().GetProvider(ctx, "airtime", "mtn").Return(provider, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrency(ctx, userID, "NGN").Return(nil, nil)

	_, err := d.svc.Initiate(ctx, ports.InitiateBillPaymentRequest{
		UserID:        userID,
		CategoryCode:  "airtime",
		ProviderCode:  "mtn",
		Amount:        decimal.RequireFromString("100"),
		AccountNumber: "08031234567",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func pendingBillPayment(userID uuid.UUID) *domain.Transaction {
	amount := decimal.RequireFromString("1000")
	fee := decimal.RequireFromString("20")
	return &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: "a1b2c3d4e5f60718",
		Reference:     "PV-1234567890",
		UserID:        userID,
		Type:          domain.TransactionTypeBillPayment,
		Status:        domain.TransactionStatusPending,
		Amount:        amount,
		Fee:           fee,
		TotalAmount:   amount.Add(fee),
		Currency:      "NGN",
		Metadata: domain.Metadata{
			"category_code":  "airtime",
			"provider_code":  "mtn",
			"account_number": "08031234567",
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestBillPaymentService_Confirm_Success(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	txn := pendingBillPayment(userID)
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("10000"),
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, txn.TransactionID).Return(txn, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, balance, _ decimal.Decimal) error {
			assert.True(t, balance.Equal(decimal.RequireFromString("8980")), "balance %s", balance)
			return nil
		})
	d.txRepo.EXPECT().UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted, gomock.Any(), gomock.Any()).Return(nil)
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	result, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Pin:           "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, result.Status)
	require.NotNil(t, result.CompletedAt)
}

func TestBillPaymentService_Confirm_ElectricityIssuesToken(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	txn := pendingBillPayment(userID)
	txn.Metadata["category_code"] = "electricity"
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("10000"),
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, txn.TransactionID).Return(txn, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalances(ctx, tx, wallet.ID, gomock.Any(), gomock.Any()).Return(nil)
	d.txRepo.EXPECT().UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, _ uuid.UUID, _ domain.TransactionStatus, _ *time.Time, extra domain.Metadata) error {
			assert.Regexp(t, `^\d{4}-\d{4}-\d{4}-\d{4}$`, extra["recharge_token"])
			return nil
		})
	d.notifier.EXPECT().Notify(ctx, userID, gomock.Any(), gomock.Any())

	result, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Pin:           "1234",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Metadata["recharge_token"])
}

func TestBillPaymentService_Confirm_InsufficientBalanceLeavesPending(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	txn := pendingBillPayment(userID)
	tx := &mockTx{}
	wallet := &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Currency: "NGN",
		Balance:  decimal.RequireFromString("500"),
	}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, txn.TransactionID).Return(txn, nil)
	d.walletRepo.EXPECT().GetByUserAndCurrencyForUpdate(ctx, tx, userID, "NGN").Return(wallet, nil)
	// No UpdateBalances, no UpdateStatus: the record stays pending.

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Pin:           "1234",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_001")
}

func TestBillPaymentService_Confirm_AlreadyProcessed(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	completed := pendingBillPayment(userID)
	completed.Status = domain.TransactionStatusCompleted
	tx := &mockTx{}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, completed.TransactionID).Return(nil, nil)
	d.txRepo.EXPECT().GetByTransactionID(ctx, userID, completed.TransactionID).Return(completed, nil)

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: completed.TransactionID,
		Pin:           "1234",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_003")
}

func TestBillPaymentService_Confirm_CompletedRowNeverSettlesTwice(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	txn := pendingBillPayment(userID)
	txn.Status = domain.TransactionStatusCompleted
	tx := &mockTx{}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Even if the locked fetch ever surfaced a settled row, the status
	// transition guard must refuse it before any wallet read.
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, txn.TransactionID).Return(txn, nil)

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: txn.TransactionID,
		Pin:           "1234",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_003")
}

func TestBillPaymentService_Confirm_NotFound(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()
	tx := &mockTx{}

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "1234").Return(true, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.txRepo.EXPECT().GetPendingForUpdate(ctx, tx, userID, "missing").Return(nil, nil)
	d.txRepo.EXPECT().GetByTransactionID(ctx, userID, "missing").Return(nil, nil)

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: "missing",
		Pin:           "1234",
	})
	require.Error(t, err)
	assertAppError(t, err, "LED_002")
}

func TestBillPaymentService_Confirm_InvalidPin(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()

	d.pins.EXPECT().HasPin(ctx, userID).Return(true, nil)
	d.pins.EXPECT().VerifyPin(ctx, userID, "0000").Return(false, nil)

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: "whatever",
		Pin:           "0000",
	})
	require.Error(t, err)
	assertAppError(t, err, "PIN_002")
}

func TestBillPaymentService_Confirm_PinNotSet(t *testing.T) {
	d := setupBillPaymentService(t)
	ctx := context.Background()
	userID := uuid.New()

	d.pins.EXPECT().HasPin(ctx, userID).Return(false, nil)

	_, err := d.svc.Confirm(ctx, ports.ConfirmBillPaymentRequest{
		UserID:        userID,
		TransactionID: "whatever",
		Pin:           "1234",
	})
	require.Error(t, err)
	assertAppError(t, err, "PIN_001")
}
