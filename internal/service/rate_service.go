package service

import (
	"context"
	"fmt"
	"time"

	"payvault/internal/core/ports"
	"payvault/pkg/apperror"
	"payvault/pkg/money"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateResolverImpl implements ports.RateResolver. Crypto USD rates come from
// the wallet_currencies table through a best-effort Redis cache; the fiat
// leg uses a flat NGN/USD constant. Each operation resolves its rate once
// and snapshots it into metadata, so a mid-operation rate update can never
// split one movement across two prices.
type RateResolverImpl struct {
	currencyRepo ports.CurrencyRepository
	cache        ports.RateCache
	ngnPerUSD    decimal.Decimal
	cacheTTL     time.Duration
	log          zerolog.Logger
}

// NewRateResolver creates a new RateResolverImpl.
func NewRateResolver(
	currencyRepo ports.CurrencyRepository,
	cache ports.RateCache,
	ngnPerUSD decimal.Decimal,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *RateResolverImpl {
	return &RateResolverImpl{
		currencyRepo: currencyRepo,
		cache:        cache,
		ngnPerUSD:    ngnPerUSD,
		cacheTTL:     cacheTTL,
		log:          log,
	}
}

// USDRate returns the USD price of one unit of the given crypto currency.
func (r *RateResolverImpl) USDRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, currency)
		if err != nil {
			r.log.Warn().Err(err).Str("currency", currency).Msg("rate cache read failed, falling through to db")
		}
		if cached != nil {
			return cached.RateUSD, nil
		}
	}

	wc, err := r.currencyRepo.GetByCurrency(ctx, currency)
	if err != nil {
		return decimal.Zero, apperror.ErrDatabaseError(fmt.Errorf("fetch currency %s: %w", currency, err))
	}
	if wc == nil {
		return decimal.Zero, apperror.ErrCurrencyNotSupported(currency)
	}
	if !money.IsPositive(wc.RateUSD) {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("non-positive rate for %s", currency))
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, wc, r.cacheTTL); err != nil {
			r.log.Warn().Err(err).Str("currency", currency).Msg("rate cache write failed")
		}
	}
	return wc.RateUSD, nil
}

// NGNPerUSD returns the flat NGN/USD rate.
func (r *RateResolverImpl) NGNPerUSD() decimal.Decimal {
	return r.ngnPerUSD
}

// FiatToCrypto converts an NGN amount into crypto units at the current rate.
func (r *RateResolverImpl) FiatToCrypto(ctx context.Context, fiatAmount decimal.Decimal, cryptoCurrency string) (*ports.Conversion, error) {
	rate, err := r.USDRate(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	usd := fiatAmount.Div(r.ngnPerUSD)
	return &ports.Conversion{
		Rate:   rate,
		Amount: money.RoundCrypto(usd.Div(rate)),
	}, nil
}

// CryptoToFiat converts crypto units into an NGN amount at the current rate.
func (r *RateResolverImpl) CryptoToFiat(ctx context.Context, cryptoAmount decimal.Decimal, cryptoCurrency string) (*ports.Conversion, error) {
	rate, err := r.USDRate(ctx, cryptoCurrency)
	if err != nil {
		return nil, err
	}
	usd := cryptoAmount.Mul(rate)
	return &ports.Conversion{
		Rate:   rate,
		Amount: money.RoundFiat(usd.Mul(r.ngnPerUSD)),
	}, nil
}
