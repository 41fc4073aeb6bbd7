package rebalance

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

// OrderBuilder sizes a delta WeightTable into whole-share market orders.
type OrderBuilder struct {
	cashTicker string

	mu         sync.Mutex
	lastOrders types.OrderSet
}

func NewOrderBuilder(cashTicker string) *OrderBuilder {
	if cashTicker == "" {
		cashTicker = types.DefaultCashTicker
	}
	return &OrderBuilder{cashTicker: cashTicker}
}

// BuildOrders turns each delta into delta * balance / price shares,
// truncated toward zero. Positive quantities become SELL orders, negative
// ones BUY orders and zero quantities are dropped. Every ticker is priced
// and sized before the first order is added, so a missing price or an
// unrepresentable quantity yields no orders.
func (b *OrderBuilder) BuildOrders(balance decimal.Decimal, delta *types.WeightTable, prices types.PriceMap) (types.OrderSet, error) {
	if !balance.IsPositive() {
		return types.OrderSet{}, fmt.Errorf("balance %s must be positive: %w", balance, ErrInvalidBalance)
	}

	entries := make([]types.WeightEntry, 0, delta.Len())
	tickers := make([]string, 0, delta.Len())
	delta.Ascend(func(e types.WeightEntry) bool {
		if e.Ticker != b.cashTicker {
			entries = append(entries, e)
			tickers = append(tickers, e.Ticker)
		}
		return true
	})
	if missing := prices.Missing(tickers); len(missing) > 0 {
		return types.OrderSet{}, fmt.Errorf("tickers %s: %w", strings.Join(missing, ", "), ErrMissingPrice)
	}

	quantities := make([]int64, len(entries))
	for i, e := range entries {
		price, _ := prices.Lookup(e.Ticker)
		qty, err := shareQuantity(e.Weight, balance, price)
		if err != nil {
			return types.OrderSet{}, fmt.Errorf("ticker %s: %w", e.Ticker, err)
		}
		quantities[i] = qty
	}

	orders := types.NewOrderSet()
	for i, e := range entries {
		switch qty := quantities[i]; {
		case qty > 0:
			orders.Add(types.Order{Ticker: e.Ticker, Quantity: qty, Side: types.SideTypeSell, OrderType: types.TypeMarket})
		case qty < 0:
			orders.Add(types.Order{Ticker: e.Ticker, Quantity: -qty, Side: types.SideTypeBuy, OrderType: types.TypeMarket})
		}
	}

	b.mu.Lock()
	b.lastOrders = orders
	b.mu.Unlock()
	return orders, nil
}

// LastOrders returns the set produced by the most recent successful call.
func (b *OrderBuilder) LastOrders() types.OrderSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.NewOrderSet(b.lastOrders.Orders()...)
}

var (
	maxShares = decimal.NewFromInt(math.MaxInt64)
	minShares = maxShares.Neg()
)

// shareQuantity returns the signed whole number of shares that weight of
// balance buys at price, truncated toward zero. QuoRem keeps the integer
// quotient exact. Quantities outside int64 are ErrQuantityOverflow.
func shareQuantity(weight, balance, price decimal.Decimal) (int64, error) {
	q, _ := weight.Mul(balance).QuoRem(price, 0)
	if q.GreaterThan(maxShares) || q.LessThan(minShares) {
		return 0, fmt.Errorf("%s shares: %w", q, ErrQuantityOverflow)
	}
	return q.IntPart(), nil
}
