// Package render turns computed pages into display rows and HTML.
package render

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FormatPrice formats a price with English digit grouping and at most three
// fraction digits, e.g. 67000.5 -> "67,000.5".
func FormatPrice(d decimal.Decimal) string {
	return formatNumber(d, 3)
}

// FormatMarketCap formats a market cap with digit grouping and no fraction.
func FormatMarketCap(d decimal.Decimal) string {
	return formatNumber(d, 0)
}

// FormatChange renders a percentage change with two decimals, e.g. "-1.23%".
// A negative change that rounds to zero keeps its sign ("-0.00%").
func FormatChange(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsNegative() && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s + "%"
}

// DisplaySymbol upper-cases a ticker symbol for display only.
func DisplaySymbol(symbol string) string {
	return strings.ToUpper(symbol)
}

func formatNumber(d decimal.Decimal, maxFraction int) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(maxFraction)))
}
