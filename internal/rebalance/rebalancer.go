package rebalance

import (
	"fmt"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Rebalancer diffs a current allocation against a target allocation.
type Rebalancer struct {
	cashTicker string
}

func NewRebalancer(cashTicker string) *Rebalancer {
	if cashTicker == "" {
		cashTicker = types.DefaultCashTicker
	}
	return &Rebalancer{cashTicker: cashTicker}
}

func (r *Rebalancer) CashTicker() string {
	return r.cashTicker
}

// ComputeDelta returns current - target for every ticker in either table,
// a missing side counting as zero. A positive delta means the holding must
// shrink (SELL) and a negative one that it must grow (BUY). Without a
// current allocation the result is the negated target, i.e. a fresh build.
// The cash ticker never appears in the result.
func (r *Rebalancer) ComputeDelta(target, current *types.WeightTable) (*types.WeightTable, error) {
	if err := validateWeights("target", target); err != nil {
		return nil, err
	}
	if err := validateWeights("current", current); err != nil {
		return nil, err
	}

	var delta *types.WeightTable
	if current.Len() == 0 {
		delta = target.Negate()
	} else {
		delta = types.NewWeightTable()
		current.Ascend(func(e types.WeightEntry) bool {
			delta.Set(e.Ticker, e.Weight)
			return true
		})
		target.Ascend(func(e types.WeightEntry) bool {
			cur, _ := delta.Get(e.Ticker)
			delta.Set(e.Ticker, cur.Sub(e.Weight))
			return true
		})
	}
	delta.Delete(r.cashTicker)
	return delta, nil
}

// validateWeights enforces the invariants of a real allocation: every
// weight in [0, 1] and a total in [0, 1].
func validateWeights(name string, w *types.WeightTable) error {
	var err error
	w.Ascend(func(e types.WeightEntry) bool {
		if e.Weight.IsNegative() || e.Weight.GreaterThan(one) {
			err = fmt.Errorf("%s table: ticker %s weight %s outside [0, 1]: %w", name, e.Ticker, e.Weight, ErrInvalidWeights)
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	if sum := w.Sum(); sum.IsNegative() || sum.GreaterThan(one) {
		return fmt.Errorf("%s table: weights sum %s outside [0, 1]: %w", name, sum, ErrInvalidWeights)
	}
	return nil
}
