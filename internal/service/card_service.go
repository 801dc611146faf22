package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"payvault/internal/core/domain"
	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CardServiceImpl implements ports.CardService. Cards are USD-denominated;
// funding and withdrawal cross the NGN wallet at the flat NGN/USD rate with
// the flat card fee on the NGN side.
type CardServiceImpl struct {
	txRepo       ports.TransactionRepository
	cardRepo     ports.CardRepository
	currencyRepo ports.CurrencyRepository
	ledger       *Ledger
	refGen       *RefGenerator
	fees         ports.FeePolicy
	rates        ports.RateResolver
	notifier     ports.Notifier
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	txRepo ports.TransactionRepository,
	cardRepo ports.CardRepository,
	currencyRepo ports.CurrencyRepository,
	ledger *Ledger,
	refGen *RefGenerator,
	fees ports.FeePolicy,
	rates ports.RateResolver,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		txRepo:       txRepo,
		cardRepo:     cardRepo,
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

// Create issues a new zero-balance card, charging the issuance fee from the
// chosen funding source. A crypto-funded creation with insufficient balance
// fails outright; it never falls back to the fiat wallet.
func (s *CardServiceImpl) Create(ctx context.Context, req ports.CreateCardRequest) (*domain.VirtualCard, *domain.Transaction, error) {
	transactionID, err := s.refGen.TransactionID(ctx)
	if err != nil {
		return nil, nil, err
	}
	reference, err := s.refGen.Reference(ctx)
	if err != nil {
		return nil, nil, err
	}
	maskedPAN, err := newMaskedPAN()
	if err != nil {
		return nil, nil, err
	}

	creationUSD := s.fees.CardCreationFeeUSD()
	flatNGN := s.fees.CardFlatFee()
	ngnPerUSD := s.rates.NGNPerUSD()

	var (
		amount, fee decimal.Decimal
		currency    string
		metadata    = domain.Metadata{"funding_source": string(req.FundingSource)}
	)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	switch req.FundingSource {
	case ports.CardFundingFiat:
		amount = money.RoundFiat(creationUSD.Mul(ngnPerUSD))
		fee = flatNGN
		currency = "NGN"
		if _, err := s.ledger.DebitWallet(ctx, dbTx, req.UserID, "NGN", amount.Add(fee)); err != nil {
			return nil, nil, err
		}
	case ports.CardFundingCrypto:
		if req.CryptoCurrency == "" {
			return nil, nil, apperror.Validation("crypto_currency is required for crypto funding")
		}
		wc, err := s.currencyRepo.GetByCurrency(ctx, req.CryptoCurrency)
		if err != nil {
			return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("fetch currency: %w", err))
		}
		if wc == nil {
			return nil, nil, apperror.ErrCurrencyNotSupported(req.CryptoCurrency)
		}
		amount = money.RoundCrypto(creationUSD.Div(wc.RateUSD))
		fee = money.RoundCrypto(flatNGN.Div(ngnPerUSD).Div(wc.RateUSD))
		currency = req.CryptoCurrency
		metadata["rate_usd"] = wc.RateUSD.String()
		if _, err := s.ledger.DebitCrypto(ctx, dbTx, req.UserID, req.CryptoCurrency, amount.Add(fee)); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, apperror.Validation("unknown funding source")
	}

	card := domain.NewVirtualCard(req.UserID, maskedPAN)
	if err := s.cardRepo.CreateInTx(ctx, dbTx, card); err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("create card: %w", err))
	}
	metadata["card_id"] = card.ID.String()

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeCardCreation,
		Status:        domain.TransactionStatusCompleted,
		Amount:        amount,
		Fee:           fee,
		TotalAmount:   amount.Add(fee),
		Currency:      currency,
		Metadata:      metadata,
		CreatedAt:     now,
		CompletedAt:   &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("create card-creation transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("funding_source", string(req.FundingSource)).
		Msg("virtual card created")
	s.notifier.Notify(ctx, req.UserID, "Card created",
		fmt.Sprintf("Your virtual card %s is ready.", card.MaskedPAN))
	return card, txn, nil
}

// Fund moves NGN wallet funds onto the card at the flat NGN/USD rate.
func (s *CardServiceImpl) Fund(ctx context.Context, req ports.CardFundingRequest) (*domain.Transaction, error) {
	if !money.IsPositive(req.AmountUSD) {
		return nil, apperror.ErrInvalidAmount()
	}

	transactionID, err := s.refGen.TransactionID(ctx)
	if err != nil {
		return nil, err
	}
	reference, err := s.refGen.Reference(ctx)
	if err != nil {
		return nil, err
	}

	ngnPerUSD := s.rates.NGNPerUSD()
	amountNGN := money.RoundFiat(req.AmountUSD.Mul(ngnPerUSD))
	fee := s.fees.CardFlatFee()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Funding side first, then the card.
	if _, err := s.ledger.DebitWallet(ctx, dbTx, req.UserID, "NGN", amountNGN.Add(fee)); err != nil {
		return nil, err
	}
	if _, err := s.ledger.CreditCard(ctx, dbTx, req.UserID, req.CardID, req.AmountUSD); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeCardFunding,
		Status:        domain.TransactionStatusCompleted,
		Amount:        amountNGN,
		Fee:           fee,
		TotalAmount:   amountNGN.Add(fee),
		Currency:      "NGN",
		Metadata: domain.Metadata{
			"card_id":     req.CardID.String(),
			"amount_usd":  req.AmountUSD.String(),
			"ngn_per_usd": ngnPerUSD.String(),
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create card-funding transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("card_id", req.CardID.String()).
		Str("amount_usd", req.AmountUSD.String()).
		Msg("card funded")
	s.notifier.Notify(ctx, req.UserID, "Card funded",
		fmt.Sprintf("USD %s loaded onto your card.", req.AmountUSD.String()))
	return txn, nil
}

// Withdraw moves card funds back into the NGN wallet. The flat card fee
// comes out of the NGN proceeds.
func (s *CardServiceImpl) Withdraw(ctx context.Context, req ports.CardWithdrawalRequest) (*domain.Transaction, error) {
	if !money.IsPositive(req.AmountUSD) {
		return nil, apperror.ErrInvalidAmount()
	}

	ngnPerUSD := s.rates.NGNPerUSD()
	grossNGN := money.RoundFiat(req.AmountUSD.Mul(ngnPerUSD))
	fee := s.fees.CardFlatFee()
	if grossNGN.LessThanOrEqual(fee) {
		return nil, apperror.ErrInvalidAmount()
	}
	netNGN := grossNGN.Sub(fee)

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

	// The card is the funding side here.
	if _, err := s.ledger.DebitCard(ctx, dbTx, req.UserID, req.CardID, req.AmountUSD); err != nil {
		return nil, err
	}
	if _, err := s.ledger.CreditWallet(ctx, dbTx, req.UserID, "NGN", netNGN); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		TransactionID: transactionID,
		Reference:     reference,
		UserID:        req.UserID,
		Type:          domain.TransactionTypeCardWithdrawal,
		Status:        domain.TransactionStatusCompleted,
		Amount:        netNGN,
		Fee:           fee,
		TotalAmount:   grossNGN,
		Currency:      "NGN",
		Metadata: domain.Metadata{
			"card_id":     req.CardID.String(),
			"amount_usd":  req.AmountUSD.String(),
			"ngn_per_usd": ngnPerUSD.String(),
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	if err := s.txRepo.CreateInTx(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create card-withdrawal transaction: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit: %w", err))
	}

	s.log.Info().
		Str("transaction_id", transactionID).
		Str("card_id", req.CardID.String()).
		Str("net_ngn", netNGN.String()).
		Msg("card withdrawal completed")
	s.notifier.Notify(ctx, req.UserID, "Card withdrawal successful",
		fmt.Sprintf("NGN %s moved back to your wallet.", netNGN.String()))
	return txn, nil
}

// newMaskedPAN generates the masked display PAN for a new card. Full PANs
// never touch this system; the issuer holds them.
func newMaskedPAN() (string, error) {
	last4 := make([]byte, 4)
	for i := range last4 {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", apperror.InternalError(fmt.Errorf("reading random digit: %w", err))
		}
		last4[i] = byte('0' + n.Int64())
	}
	return "**** **** **** " + string(last4), nil
}
