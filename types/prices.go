package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PriceMap holds the current price of each ticker.
type PriceMap map[string]decimal.Decimal

// Lookup returns the price of ticker only when it is present and positive.
func (p PriceMap) Lookup(ticker string) (decimal.Decimal, bool) {
	price, ok := p[ticker]
	if !ok || !price.IsPositive() {
		return decimal.Zero, false
	}
	return price, true
}

// Missing lists, in ticker order, the tickers without a positive price.
func (p PriceMap) Missing(tickers []string) []string {
	var missing []string
	for _, t := range tickers {
		if _, ok := p.Lookup(t); !ok {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return missing
}
