package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// weightPlaces bounds the precision of derived weights. Truncating keeps
// the sum of a fully invested account at or below one.
const weightPlaces = 12

type PortfolioView struct {
	Cash      decimal.Decimal
	Positions map[string]PositionSnapshot
	Time      time.Time
}

type PositionSnapshot struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

// Value is the liquidation value of the account: cash plus every open
// position marked at prices.
func (v PortfolioView) Value(prices PriceMap) (decimal.Decimal, error) {
	value := v.Cash
	for sym, pos := range v.Positions {
		if pos.Quantity.IsZero() {
			continue
		}
		price, ok := prices.Lookup(sym)
		if !ok {
			return decimal.Zero, fmt.Errorf("position %s: %w", sym, ErrMissingPrice)
		}
		value = value.Add(pos.Quantity.Mul(price))
	}
	return value, nil
}

// Weights converts the account into a WeightTable of market value over
// liquidation value. Uninvested cash is reported under cashTicker. An
// account without positive value yields a nil table.
func (v PortfolioView) Weights(prices PriceMap, cashTicker string) (*WeightTable, error) {
	value, err := v.Value(prices)
	if err != nil {
		return nil, err
	}
	if !value.IsPositive() {
		return nil, nil
	}

	weights := NewWeightTable()
	for sym, pos := range v.Positions {
		if pos.Quantity.IsZero() {
			continue
		}
		price, _ := prices.Lookup(sym)
		weights.Set(sym, pos.Quantity.Mul(price).Div(value).Truncate(weightPlaces))
	}
	if !v.Cash.IsZero() {
		weights.Set(cashTicker, v.Cash.Div(value).Truncate(weightPlaces))
	}
	return weights, nil
}

// Tickers lists every symbol with a non-zero position.
func (v PortfolioView) Tickers() []string {
	out := make([]string, 0, len(v.Positions))
	for sym, pos := range v.Positions {
		if !pos.Quantity.IsZero() {
			out = append(out, sym)
		}
	}
	return out
}
