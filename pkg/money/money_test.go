package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("1234.56")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1234.56")))

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}

func TestRoundFiat(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1234.567", "1234.57"},
		{"1234.564", "1234.56"},
		{"1234.5", "1234.5"},
		{"0.005", "0.01"},
	}
	for _, tt := range tests {
		got := RoundFiat(MustParse(tt.in))
		assert.True(t, got.Equal(MustParse(tt.want)), "RoundFiat(%s) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestRoundCrypto(t *testing.T) {
	// 8 dp, half up: the 9th digit decides.
	got := RoundCrypto(MustParse("0.123456785"))
	assert.True(t, got.Equal(MustParse("0.12345679")), "got %s", got)

	got = RoundCrypto(MustParse("0.123456784"))
	assert.True(t, got.Equal(MustParse("0.12345678")), "got %s", got)
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive(MustParse("0.00000001")))
	assert.False(t, IsPositive(Zero))
	assert.False(t, IsPositive(MustParse("-1")))
}

func TestMax(t *testing.T) {
	a, b := MustParse("20"), MustParse("12.5")
	assert.True(t, Max(a, b).Equal(a))
	assert.True(t, Max(b, a).Equal(a))
	assert.True(t, Max(a, a).Equal(a))
}
