package repository

import (
	"context"

	"rebalancer/types"
)

// GetLatestPrices returns the last close of every ticker that has one.
// Tickers without history are left out of the map; callers decide whether
// that is an error.
func (db *Database) GetLatestPrices(ctx context.Context, tickers []string) (types.PriceMap, error) {
	prices := make(types.PriceMap, len(tickers))
	if len(tickers) == 0 {
		return prices, nil
	}
	rows, err := db.prices.GetLatestCloses(ctx, tickers)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		prices[row.Ticker] = row.Close
	}
	return prices, nil
}
