package domain

import "github.com/shopspring/decimal"

func init() {
	// Coin JSON mirrors the upstream numeric fields
	decimal.MarshalJSONWithoutQuotes = true
}

// Coin is one coin's market snapshot as returned by the markets endpoint.
// Records are treated as immutable once fetched.
type Coin struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	Image     string          `json:"image"`
	Rank      int             `json:"market_cap_rank"`
	Price     decimal.Decimal `json:"current_price"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Change24h decimal.Decimal `json:"price_change_percentage_24h"` // 24h change (%)
}

// ChangeDirection returns "positive" for a non-negative 24h change and
// "negative" otherwise.
func (c *Coin) ChangeDirection() string {
	if c.Change24h.IsNegative() {
		return "negative"
	}
	return "positive"
}

// HasRequiredFields reports whether the identifying fields are present.
func (c *Coin) HasRequiredFields() bool {
	return c.ID != "" && c.Name != "" && c.Symbol != ""
}
