package rebalance

import (
	"errors"
	"fmt"
	"testing"

	"rebalancer/types"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var propertyTickers = []string{"SPY", "IWM", "IWO", "QQQ", "VTI", "BND", types.DefaultCashTicker}

// genAllocation draws a valid allocation: weights in basis points whose
// total never exceeds 10000, over a subset of propertyTickers.
func genAllocation(label string) *rapid.Generator[*types.WeightTable] {
	return rapid.Custom(func(t *rapid.T) *types.WeightTable {
		w := types.NewWeightTable()
		remaining := int64(10000)
		for _, ticker := range propertyTickers {
			if !rapid.Bool().Draw(t, fmt.Sprintf("%s-has-%s", label, ticker)) {
				continue
			}
			bps := rapid.Int64Range(0, remaining).Draw(t, fmt.Sprintf("%s-bps-%s", label, ticker))
			remaining -= bps
			w.Set(ticker, decimal.New(bps, -4))
		}
		return w
	})
}

func genPrices(t *rapid.T) types.PriceMap {
	prices := types.PriceMap{}
	for _, ticker := range propertyTickers {
		if ticker == types.DefaultCashTicker {
			continue
		}
		cents := rapid.Int64Range(1, 100_000_00).Draw(t, "price-"+ticker)
		prices[ticker] = decimal.New(cents, -2)
	}
	return prices
}

func genBalance(t *rapid.T) decimal.Decimal {
	return decimal.New(rapid.Int64Range(1, 10_000_000_00).Draw(t, "balance"), -2)
}

func TestProperty_BuildOrdersIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := genAllocation("target").Draw(t, "target")
		current := genAllocation("current").Draw(t, "current")
		prices := genPrices(t)
		balance := genBalance(t)

		r := NewRebalancer("")
		b := NewOrderBuilder("")
		delta, err := r.ComputeDelta(target, current)
		if err != nil {
			t.Fatalf("ComputeDelta() unexpected error = %v", err)
		}
		first, err := b.BuildOrders(balance, delta, prices)
		if err != nil {
			t.Fatalf("BuildOrders() unexpected error = %v", err)
		}
		second, err := b.BuildOrders(balance, delta, prices)
		if err != nil {
			t.Fatalf("BuildOrders() unexpected error = %v", err)
		}
		if !first.Equal(second) {
			t.Fatalf("BuildOrders() not idempotent: %v vs %v", first.Orders(), second.Orders())
		}
	})
}

func TestProperty_CashPlaceholderNeverTraded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := genAllocation("target").Draw(t, "target")
		current := genAllocation("current").Draw(t, "current")
		prices := genPrices(t)
		prices[types.DefaultCashTicker] = decimal.NewFromInt(1)

		delta, err := NewRebalancer("").ComputeDelta(target, current)
		if err != nil {
			t.Fatalf("ComputeDelta() unexpected error = %v", err)
		}
		if _, ok := delta.Get(types.DefaultCashTicker); ok {
			t.Fatalf("ComputeDelta() kept the cash placeholder: %v", delta.Map())
		}

		// Feed a delta that still carries the cash ticker straight to the builder.
		delta.Set(types.DefaultCashTicker, decimal.NewFromInt(-1))
		orders, err := NewOrderBuilder("").BuildOrders(genBalance(t), delta, prices)
		if err != nil {
			t.Fatalf("BuildOrders() unexpected error = %v", err)
		}
		for _, o := range orders.Orders() {
			if o.Ticker == types.DefaultCashTicker {
				t.Fatalf("BuildOrders() emitted an order for the cash placeholder: %v", o)
			}
		}
	})
}

func TestProperty_SignConvention(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := genAllocation("target").Draw(t, "target")
		current := genAllocation("current").Draw(t, "current")
		prices := genPrices(t)

		delta, err := NewRebalancer("").ComputeDelta(target, current)
		if err != nil {
			t.Fatalf("ComputeDelta() unexpected error = %v", err)
		}
		orders, err := NewOrderBuilder("").BuildOrders(genBalance(t), delta, prices)
		if err != nil {
			t.Fatalf("BuildOrders() unexpected error = %v", err)
		}
		for _, o := range orders.Orders() {
			cur, _ := current.Get(o.Ticker)
			tar, _ := target.Get(o.Ticker)
			switch {
			case cur.GreaterThan(tar) && o.Side != types.SideTypeSell:
				t.Fatalf("%s: current %s > target %s but order is %v", o.Ticker, cur, tar, o)
			case cur.LessThan(tar) && o.Side != types.SideTypeBuy:
				t.Fatalf("%s: current %s < target %s but order is %v", o.Ticker, cur, tar, o)
			case cur.Equal(tar):
				t.Fatalf("%s: unchanged weight produced order %v", o.Ticker, o)
			}
			if o.Quantity <= 0 || o.OrderType != types.TypeMarket {
				t.Fatalf("invalid order %v", o)
			}
		}
	})
}

func TestProperty_NoCurrentStateConvention(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := genAllocation("target").Draw(t, "target")
		r := NewRebalancer("")

		fromNil, err := r.ComputeDelta(target, nil)
		if err != nil {
			t.Fatalf("ComputeDelta(nil) unexpected error = %v", err)
		}
		fromEmpty, err := r.ComputeDelta(target, types.NewWeightTable())
		if err != nil {
			t.Fatalf("ComputeDelta(empty) unexpected error = %v", err)
		}
		negated := target.Negate()
		negated.Delete(types.DefaultCashTicker)
		if !fromNil.Equal(fromEmpty) || !fromNil.Equal(negated) {
			t.Fatalf("nil %v, empty %v, negated target %v", fromNil.Map(), fromEmpty.Map(), negated.Map())
		}
	})
}

func TestProperty_ZeroOrderSuppression(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prices := genPrices(t)
		balance := genBalance(t)
		delta := types.NewWeightTable()
		for _, ticker := range propertyTickers {
			if ticker == types.DefaultCashTicker {
				continue
			}
			bps := rapid.Int64Range(-10000, 10000).Draw(t, "delta-"+ticker)
			delta.Set(ticker, decimal.New(bps, -4))
		}

		orders, err := NewOrderBuilder("").BuildOrders(balance, delta, prices)
		if err != nil {
			t.Fatalf("BuildOrders() unexpected error = %v", err)
		}
		traded := map[string]bool{}
		for _, o := range orders.Orders() {
			traded[o.Ticker] = true
		}
		delta.Ascend(func(e types.WeightEntry) bool {
			shares := e.Weight.Mul(balance).Div(prices[e.Ticker]).Abs()
			if shares.LessThan(decimal.NewFromInt(1)) && traded[e.Ticker] {
				t.Fatalf("%s: %s shares should not trade", e.Ticker, shares)
			}
			return true
		})
	})
}

func TestProperty_InvalidWeightsRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		target := genAllocation("target").Draw(t, "target")
		bad := rapid.Int64Range(-10000, -1).Draw(t, "negative-bps")
		target.Set("BAD", decimal.New(bad, -4))

		_, err := NewRebalancer("").ComputeDelta(target, nil)
		if !errors.Is(err, ErrInvalidWeights) {
			t.Fatalf("ComputeDelta() error = %v, want ErrInvalidWeights", err)
		}
	})
}
