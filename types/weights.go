package types

import (
	"encoding/json"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

// DefaultCashTicker is the brokerage money-market sweep position.
const DefaultCashTicker = "MMDA1"

type WeightEntry struct {
	Ticker string          `json:"ticker"`
	Weight decimal.Decimal `json:"weight"`
}

func weightLess(a, b WeightEntry) bool {
	return a.Ticker < b.Ticker
}

// WeightTable maps tickers to weights and always iterates in ascending
// ticker order. A nil *WeightTable reads as an empty table.
type WeightTable struct {
	entries *btree.BTreeG[WeightEntry]
}

func NewWeightTable(entries ...WeightEntry) *WeightTable {
	w := &WeightTable{entries: btree.NewG[WeightEntry](16, weightLess)}
	for _, e := range entries {
		w.Set(e.Ticker, e.Weight)
	}
	return w
}

func WeightTableFromMap(weights map[string]decimal.Decimal) *WeightTable {
	w := NewWeightTable()
	for ticker, weight := range weights {
		w.Set(ticker, weight)
	}
	return w
}

// Set inserts or replaces the weight of ticker.
func (w *WeightTable) Set(ticker string, weight decimal.Decimal) {
	if w.entries == nil {
		w.entries = btree.NewG[WeightEntry](16, weightLess)
	}
	w.entries.ReplaceOrInsert(WeightEntry{Ticker: ticker, Weight: weight})
}

func (w *WeightTable) Get(ticker string) (decimal.Decimal, bool) {
	if w == nil || w.entries == nil {
		return decimal.Zero, false
	}
	e, ok := w.entries.Get(WeightEntry{Ticker: ticker})
	return e.Weight, ok
}

func (w *WeightTable) Delete(ticker string) {
	if w == nil || w.entries == nil {
		return
	}
	w.entries.Delete(WeightEntry{Ticker: ticker})
}

func (w *WeightTable) Len() int {
	if w == nil || w.entries == nil {
		return 0
	}
	return w.entries.Len()
}

// Ascend calls fn for every entry in ticker order until fn returns false.
func (w *WeightTable) Ascend(fn func(e WeightEntry) bool) {
	if w == nil || w.entries == nil {
		return
	}
	w.entries.Ascend(func(e WeightEntry) bool { return fn(e) })
}

func (w *WeightTable) Entries() []WeightEntry {
	out := make([]WeightEntry, 0, w.Len())
	w.Ascend(func(e WeightEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}

func (w *WeightTable) Tickers() []string {
	out := make([]string, 0, w.Len())
	w.Ascend(func(e WeightEntry) bool {
		out = append(out, e.Ticker)
		return true
	})
	return out
}

func (w *WeightTable) Sum() decimal.Decimal {
	sum := decimal.Zero
	w.Ascend(func(e WeightEntry) bool {
		sum = sum.Add(e.Weight)
		return true
	})
	return sum
}

// Negate returns a new table with every weight sign-flipped.
func (w *WeightTable) Negate() *WeightTable {
	out := NewWeightTable()
	w.Ascend(func(e WeightEntry) bool {
		out.Set(e.Ticker, e.Weight.Neg())
		return true
	})
	return out
}

// Clone returns an independent copy; later writes to either table are not
// visible in the other.
func (w *WeightTable) Clone() *WeightTable {
	if w == nil || w.entries == nil {
		return NewWeightTable()
	}
	return &WeightTable{entries: w.entries.Clone()}
}

// Equal compares tickers and weights by value.
func (w *WeightTable) Equal(other *WeightTable) bool {
	if w.Len() != other.Len() {
		return false
	}
	equal := true
	w.Ascend(func(e WeightEntry) bool {
		o, ok := other.Get(e.Ticker)
		if !ok || !o.Equal(e.Weight) {
			equal = false
		}
		return equal
	})
	return equal
}

func (w *WeightTable) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, w.Len())
	w.Ascend(func(e WeightEntry) bool {
		out[e.Ticker] = e.Weight
		return true
	})
	return out
}

// MarshalJSON encodes the table as a {"TICKER": "weight"} object.
func (w *WeightTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Map())
}

func (w *WeightTable) UnmarshalJSON(data []byte) error {
	var m map[string]decimal.Decimal
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*w = *WeightTableFromMap(m)
	return nil
}
