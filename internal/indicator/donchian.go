package indicator

import (
	"rebalancer/types"

	"github.com/shopspring/decimal"
)

// Channel returns the Donchian channel of candles: the highest high and
// the lowest low.
func Channel(candles []types.Candle) (decimal.Decimal, decimal.Decimal) {
	if len(candles) == 0 {
		return decimal.Zero, decimal.Zero
	}

	highest := candles[0].High
	lowest := candles[0].Low
	for _, c := range candles {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		if c.Low.LessThan(lowest) {
			lowest = c.Low
		}
	}
	return highest, lowest
}

// BelowChannel reports whether the last close broke under the lowest low
// of the window candles preceding it. A history shorter than window+1
// candles never breaks down.
func BelowChannel(candles []types.Candle, window int) bool {
	if window <= 0 || len(candles) < window+1 {
		return false
	}
	last := candles[len(candles)-1]
	_, lowest := Channel(candles[len(candles)-1-window : len(candles)-1])
	return last.Close.LessThan(lowest)
}
