package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := map[string]string{
		"67000.5": "67,000.5",
		"3500":    "3,500",
		"0.123":   "0.123",
		"1":       "1",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatPrice(decimal.RequireFromString(in)), in)
	}
}

func TestFormatMarketCap(t *testing.T) {
	assert.Equal(t, "1,320,000,000,000", FormatMarketCap(decimal.NewFromInt(1320000000000)))
	assert.Equal(t, "0", FormatMarketCap(decimal.Zero))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "1.25%", FormatChange(decimal.RequireFromString("1.2468")))
	assert.Equal(t, "-0.50%", FormatChange(decimal.RequireFromString("-0.5")))
	assert.Equal(t, "0.00%", FormatChange(decimal.Zero))
	assert.Equal(t, "-0.00%", FormatChange(decimal.RequireFromString("-0.004")))
	assert.Equal(t, "0.00%", FormatChange(decimal.RequireFromString("0.004")))
}

func TestDisplaySymbol(t *testing.T) {
	assert.Equal(t, "BTC", DisplaySymbol("btc"))
}
