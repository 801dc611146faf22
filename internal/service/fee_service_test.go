package service

import (
	"testing"

	"payvault/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultFeesConfig() config.FeesConfig {
	return config.FeesConfig{
		BillPaymentPercent: "0.01",
		BillPaymentMinimum: map[string]string{
			"NGN": "20",
			"USD": "0.1",
			"KES": "2",
			"GHS": "0.5",
		},
		BillPaymentFloor:   "0.1",
		CryptoTradePercent: "0.01",
		CryptoSendFlatUSD:  "3",
		CardFlatNGN:        "500",
		CardCreationUSD:    "3",
		WithdrawalFlatNGN:  "200",
		DepositFlatNGN:     "200",
	}
}

func newTestFeePolicy(t *testing.T) *ConfigFeePolicy {
	t.Helper()
	p, err := NewConfigFeePolicy(defaultFeesConfig())
	require.NoError(t, err)
	return p
}

func TestConfigFeePolicy_BillPaymentFee(t *testing.T) {
	p := newTestFeePolicy(t)

	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"small NGN hits minimum", "50", "NGN", "20"},
		{"large NGN uses percentage", "5000", "NGN", "50"},
		{"exact crossover", "2000", "NGN", "20"},
		{"USD minimum", "5", "USD", "0.1"},
		{"USD percentage", "100", "USD", "1"},
		{"unknown currency uses floor", "5", "ZAR", "0.1"},
		{"KES minimum", "100", "KES", "2"},
		{"GHS minimum", "10", "GHS", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.BillPaymentFee(decimal.RequireFromString(tt.amount), tt.currency)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"BillPaymentFee(%s, %s) = %s, want %s", tt.amount, tt.currency, got, tt.want)
		})
	}
}

func TestConfigFeePolicy_CryptoTradeFee(t *testing.T) {
	p := newTestFeePolicy(t)

	fee := p.CryptoTradeFee(decimal.RequireFromString("0.5"))
	assert.True(t, fee.Equal(decimal.RequireFromString("0.005")))
}

func TestConfigFeePolicy_CryptoSendFee(t *testing.T) {
	p := newTestFeePolicy(t)

	// $3 flat at $50,000/BTC is 0.00006 BTC.
	fee := p.CryptoSendFee(decimal.RequireFromString("50000"))
	assert.True(t, fee.Equal(decimal.RequireFromString("0.00006")), "got %s", fee)
}

func TestConfigFeePolicy_FlatFees(t *testing.T) {
	p := newTestFeePolicy(t)

	assert.True(t, p.CardFlatFee().Equal(decimal.RequireFromString("500")))
	assert.True(t, p.CardCreationFeeUSD().Equal(decimal.RequireFromString("3")))
	assert.True(t, p.WithdrawalFee().Equal(decimal.RequireFromString("200")))
	assert.True(t, p.DepositFee().Equal(decimal.RequireFromString("200")))
}

func TestNewConfigFeePolicy_MalformedValue(t *testing.T) {
	cfg := defaultFeesConfig()
	cfg.CryptoTradePercent = "one percent"

	_, err := NewConfigFeePolicy(cfg)
	assert.Error(t, err)
}
