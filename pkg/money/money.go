// Package money provides the fixed-point decimal helpers used for every
// monetary amount in the ledger. Balances and amounts are never represented
// as binary floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// FiatScale is the number of fractional digits kept on fiat amounts.
	FiatScale int32 = 2
	// CryptoScale is the number of fractional digits kept on crypto amounts.
	CryptoScale int32 = 8
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Parse converts a decimal string into an amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse converts a decimal string into an amount, panicking on malformed
// input. Reserved for configuration defaults and test fixtures.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundFiat rounds an amount to fiat precision (2 dp, half up).
func RoundFiat(d decimal.Decimal) decimal.Decimal {
	return d.Round(FiatScale)
}

// RoundCrypto rounds an amount to crypto precision (8 dp, half up).
func RoundCrypto(d decimal.Decimal) decimal.Decimal {
	return d.Round(CryptoScale)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThanOrEqual(b) {
		return a
	}
	return b
}
