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

// CryptoServiceImpl implements ports.CryptoService. Every operation resolves
// the USD rate exactly once and snapshots it into metadata; the fee on buys
// and sells is taken in the crypto leg, the fee on sends is the flat USD
// network cost converted at the same snapshot.
type CryptoServiceImpl struct {
	txRepo       ports.TransactionRepository
	currencyRepo ports.CurrencyRepository
	ledger       *Ledger
	refGen       *RefGenerator
	fees         ports.FeePolicy
	rates        ports.RateResolver
	notifier     ports.Notifier
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewCryptoService creates a new CryptoServiceImpl.
func NewCryptoService(
	txRepo ports.TransactionRepository,
	currencyRepo ports.CurrencyRepository,
	ledger *Ledger,
	refGen *RefGenerator,
	fees ports.FeePolicy,
	rates ports.RateResolver,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CryptoServiceImpl {
	return &CryptoServiceImpl{
		txRepo:       txRepo,
		currencyRepo: currencyRepo,
		ledger:       ledger,
		refGen:       refGen,
		fees:         fees,
		rates:        rates,
		notifier:     notifier,
		transactor:   transactor,
		log:          log,
	}
}

// buyQuote prices a buy at one rate snapshot: the fiat amount converts to a
// gross crypto amount, the trade fee comes out of the crypto leg, and the
// remainder is what the account is credited.
func (s *CryptoServiceImpl) buyQuote(rate, fiatAmount decimal.Decimal, cryptoCurrency string) *ports.CryptoQuote {
	usd := fiatAmount.Div(s.rates.NGNPerUSD())
	gross := money.RoundCrypto(usd.Div(rate))
	fee := s.fees.CryptoTradeFee(gross)
	return &ports.CryptoQuote{
		CryptoCurrency: cryptoCurrency,
		CryptoAmount:   gross.Sub(fee),
		Fee:            fee,
		FiatAmount:     fiatAmount,
		Rate:           rate,
	}
}

// sellQuote prices a sell: the trade fee comes off the debited crypto amount
// and only the remainder converts to fiat.
func (s *CryptoServiceImpl) sellQuote(rate, cryptoAmount decimal.Decimal, cryptoCurrency string) *ports.CryptoQuote {
	fee := s.fees.CryptoTradeFee(cryptoAmount)
	net := cryptoAmount.Sub(fee)
	fiat := money.RoundFiat(net.Mul(rate).Mul(s.rates.NGNPerUSD()))
	return &ports.CryptoQuote{
		CryptoCurrency: cryptoCurrency,
		CryptoAmount:   cryptoAmount,
		Fee:            fee,
		FiatAmount:     fiat,
		Rate:           rate,
	}
}

// PreviewBuy returns the quote a Buy with the same inputs would execute at,
// modulo rate movement between the two calls.
func (s *CryptoServiceImpl) PreviewBuy(ctx context.Context, userID uuid.UUID, fiatAmount decimal.Decimal, cryptoCurrency string) (*ports.CryptoQuote, error) {
	if !money.IsPositive(fiatAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	rate, err := s.rates.USDRate(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	return s.buyQuote(rate, fiatAmount, cryptoCurrency), nil
}

// Buy debits the NGN wallet and credits the crypto account atomically.
func (s *CryptoServiceImpl) Buy(ctx context.Context, userID uuid.UUID, fiatAmount decimal.Decimal, cryptoCurrency string) (*domain.Transaction, error) {
	if !money.IsPositive(fiatAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	wc, err := s.lookupCurrency(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	quote := s.buyQuote(wc.RateUSD, fiatAmount, cryptoCurrency)
	if !money.IsPositive(quote.CryptoAmount) {
		return nil, apperror.ErrInvalidAmount()
	}

	transactionID, reference, err := s.newIDs(ctx)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Funding side first, then destination.
	if _, err := s.ledger.DebitWallet(ctx, dbTx, userID, "NGN", fiatAmount); err != nil {
		return nil, err
	}
	if _, err := s.ledger.CreditCrypto(ctx, dbTx, userID, wc.Blockchain, cryptoCurrency, quote.CryptoAmount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        userID,
		Type:          domain.TransactionTypeCryptoBuy,
		Status:        domain.TransactionStatusCompleted,
		Amount:        quote.CryptoAmount,
		Fee:           quote.Fee,
		TotalAmount:   quote.CryptoAmount.Add(quote.Fee),
		Currency:      cryptoCurrency,
		Metadata: domain.Metadata{
			"fiat_amount":   fiatAmount.String(),
			"fiat_currency": "NGN",
			"rate_usd":      quote.Rate.String(),
			"ngn_per_usd":   s.rates.NGNPerUSD().String(),
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create buy transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("user_id", userID.String()).
		Str("currency", cryptoCurrency).
		Str("crypto_amount", quote.CryptoAmount.String()).
		Msg("crypto buy completed")
	s.notifier.Notify(ctx, userID, "Crypto purchase successful",
		fmt.Sprintf("You bought %s %s.", quote.CryptoAmount.String(), cryptoCurrency))
	return txn, nil
}

// PreviewSell returns the quote a Sell with the same inputs would execute at.
func (s *CryptoServiceImpl) PreviewSell(ctx context.Context, userID uuid.UUID, cryptoAmount decimal.Decimal, cryptoCurrency string) (*ports.CryptoQuote, error) {
	if !money.IsPositive(cryptoAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	rate, err := s.rates.USDRate(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	return s.sellQuote(rate, cryptoAmount, cryptoCurrency), nil
}

// Sell debits the crypto account and credits the NGN wallet atomically.
func (s *CryptoServiceImpl) Sell(ctx context.Context, userID uuid.UUID, cryptoAmount decimal.Decimal, cryptoCurrency string) (*domain.Transaction, error) {
	if !money.IsPositive(cryptoAmount) {
		return nil, apperror.ErrInvalidAmount()
	}
	wc, err := s.lookupCurrency(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	quote := s.sellQuote(wc.RateUSD, cryptoAmount, cryptoCurrency)
	if !money.IsPositive(quote.FiatAmount) {
		return nil, apperror.ErrInvalidAmount()
	}

	transactionID, reference, err := s.newIDs(ctx)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.ledger.DebitCrypto(ctx, dbTx, userID, cryptoCurrency, cryptoAmount); err != nil {
		return nil, err
	}
	if _, err := s.ledger.CreditWallet(ctx, dbTx, userID, "NGN", quote.FiatAmount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        userID,
		Type:          domain.TransactionTypeCryptoSell,
		Status:        domain.TransactionStatusCompleted,
		Amount:        cryptoAmount.Sub(quote.Fee),
		Fee:           quote.Fee,
		TotalAmount:   cryptoAmount,
		Currency:      cryptoCurrency,
		Metadata: domain.Metadata{
			"fiat_amount":   quote.FiatAmount.String(),
			"fiat_currency": "NGN",
			"rate_usd":      quote.Rate.String(),
			"ngn_per_usd":   s.rates.NGNPerUSD().String(),
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create sell transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("user_id", userID.String()).
		Str("currency", cryptoCurrency).
		Str("fiat_amount", quote.FiatAmount.String()).
		Msg("crypto sell completed")
	s.notifier.Notify(ctx, userID, "Crypto sale successful",
		fmt.Sprintf("You sold %s %s for NGN %s.", cryptoAmount.String(), cryptoCurrency, quote.FiatAmount.String()))
	return txn, nil
}

// Send transfers the requested amount to an external address. The flat
// network fee is charged on top, so the account must cover amount plus fee
// and the full requested amount reaches the destination.
func (s *CryptoServiceImpl) Send(ctx context.Context, req ports.CryptoSendRequest) (*domain.Transaction, error) {
	if !money.IsPositive(req.Amount) {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Address == "" {
		return nil, apperror.Validation("address is required")
	}
	wc, err := s.lookupCurrency(ctx, req.CryptoCurrency)
	if err != nil {
		return nil, err
	}
	fee := s.fees.CryptoSendFee(wc.RateUSD)
	total := req.Amount.Add(fee)

	transactionID, reference, err := s.newIDs(ctx)
	if err != nil {
		return nil, err
	}
	txHash, err := s.refGen.TxHash()
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if _, err := s.ledger.DebitCrypto(ctx, dbTx, req.UserID, req.CryptoCurrency, total); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeCryptoWithdrawal,
		Status:        domain.TransactionStatusCompleted,
		Amount:        req.Amount,
		Fee:           fee,
		TotalAmount:   total,
		Currency:      req.CryptoCurrency,
		Metadata: domain.Metadata{
			"address":  req.Address,
			"tx_hash":  txHash,
			"rate_usd": wc.RateUSD.String(),
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create send transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("user_id", req.UserID.String()).
		Str("currency", req.CryptoCurrency).
		Str("amount", req.Amount.String()).
		Str("fee", fee.String()).
		Msg("crypto send completed")
	s.notifier.Notify(ctx, req.UserID, "Crypto sent",
		fmt.Sprintf("%s %s sent to %s.", req.Amount.String(), req.CryptoCurrency, req.Address))
	return txn, nil
}

func (s *CryptoServiceImpl) lookupCurrency(ctx context.Context, currency string) (*domain.WalletCurrency, error) {
	wc, err := s.currencyRepo.GetByCurrency(ctx, currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("fetch currency %s: %w", currency, err))
	}
	if wc == nil {
		return nil, apperror.ErrCurrencyNotSupported(currency)
	}
	if !money.IsPositive(wc.RateUSD) {
		return nil, apperror.InternalError(fmt.Errorf("non-positive rate for %s", currency))
	}
	return wc, nil
}

func (s *CryptoServiceImpl) newIDs(ctx context.Context) (transactionID, reference string, err error) {
	transactionID, err = s.refGen.TransactionID(ctx)
	if err != nil {
		return "", "", err
	}
	reference, err = s.refGen.Reference(ctx)
	if err != nil {
		return "", "", err
	}
	return transactionID, reference, nil
}
