package service

import (
	"fmt"

	"payvault/config"
	"payvault/pkg/money"

	"github.com/shopspring/decimal"
)

// ConfigFeePolicy implements ports.FeePolicy from parsed configuration
// values. All fields are exact decimals; parsing happens once at startup so
// malformed configuration fails fast instead of mispricing fees at runtime.
type ConfigFeePolicy struct {
	billPercent    decimal.Decimal
	billMinimums   map[string]decimal.Decimal
	billFloor      decimal.Decimal
	tradePercent   decimal.Decimal
	sendFlatUSD    decimal.Decimal
	cardFlatNGN    decimal.Decimal
	cardCreateUSD  decimal.Decimal
	withdrawalNGN  decimal.Decimal
	depositNGN     decimal.Decimal
}

// NewConfigFeePolicy parses the fee configuration into a policy.
func NewConfigFeePolicy(cfg config.FeesConfig) (*ConfigFeePolicy, error) {
	p := &ConfigFeePolicy{billMinimums: make(map[string]decimal.Decimal, len(cfg.BillPaymentMinimum))}

	var err error
	parse := func(name, raw string) decimal.Decimal {
		if err != nil {
			return decimal.Zero
		}
		var d decimal.Decimal
		d, err = money.Parse(raw)
		if err != nil {
			err = fmt.Errorf("fees.%s: %w", name, err)
		}
		return d
	}

	p.billPercent = parse("bill_payment_percent", cfg.BillPaymentPercent)
	p.billFloor = parse("bill_payment_floor", cfg.BillPaymentFloor)
	p.tradePercent = parse("crypto_trade_percent", cfg.CryptoTradePercent)
	p.sendFlatUSD = parse("crypto_send_flat_usd", cfg.CryptoSendFlatUSD)
	p.cardFlatNGN = parse("card_flat_ngn", cfg.CardFlatNGN)
	p.cardCreateUSD = parse("card_creation_usd", cfg.CardCreationUSD)
	p.withdrawalNGN = parse("withdrawal_flat_ngn", cfg.WithdrawalFlatNGN)
	p.depositNGN = parse("deposit_flat_ngn", cfg.DepositFlatNGN)
	for currency, raw := range cfg.BillPaymentMinimum {
		p.billMinimums[currency] = parse("bill_payment_minimum."+currency, raw)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BillPaymentFee is the greater of the percentage fee and the per-currency
// minimum. Currencies without a configured minimum fall back to the floor.
func (p *ConfigFeePolicy) BillPaymentFee(amount decimal.Decimal, currency string) decimal.Decimal {
	min, ok := p.billMinimums[currency]
	if !ok {
		min = p.billFloor
	}
	pct := amount.Mul(p.billPercent)
	return money.RoundFiat(money.Max(pct, min))
}

// CryptoTradeFee is the percentage fee taken in the crypto leg of a buy or
// sell.
func (p *ConfigFeePolicy) CryptoTradeFee(cryptoAmount decimal.Decimal) decimal.Decimal {
	return money.RoundCrypto(cryptoAmount.Mul(p.tradePercent))
}

// CryptoSendFee converts the flat USD network fee into the sent currency at
// the given USD rate.
func (p *ConfigFeePolicy) CryptoSendFee(rateUSD decimal.Decimal) decimal.Decimal {
	return money.RoundCrypto(p.sendFlatUSD.Div(rateUSD))
}

// CardFlatFee is the flat NGN fee applied to card operations.
func (p *ConfigFeePolicy) CardFlatFee() decimal.Decimal {
	return p.cardFlatNGN
}

// CardCreationFeeUSD is the USD issuance fee for a new card.
func (p *ConfigFeePolicy) CardCreationFeeUSD() decimal.Decimal {
	return p.cardCreateUSD
}

// WithdrawalFee is the flat NGN fee for bank withdrawals.
func (p *ConfigFeePolicy) WithdrawalFee() decimal.Decimal {
	return p.withdrawalNGN
}

// DepositFee is the flat NGN fee for deposits.
func (p *ConfigFeePolicy) DepositFee() decimal.Decimal {
	return p.depositNGN
}
