package types

import "sort"

// OrderSet is an unordered collection of orders deduplicated by value.
// The zero value is an empty set ready to use.
type OrderSet struct {
	orders map[orderKey]Order
}

func NewOrderSet(orders ...Order) OrderSet {
	s := OrderSet{orders: make(map[orderKey]Order, len(orders))}
	for _, o := range orders {
		s.orders[o.key()] = o
	}
	return s
}

// Add inserts o and reports whether it was not already present.
func (s *OrderSet) Add(o Order) bool {
	if s.orders == nil {
		s.orders = make(map[orderKey]Order)
	}
	k := o.key()
	if _, ok := s.orders[k]; ok {
		return false
	}
	s.orders[k] = o
	return true
}

func (s OrderSet) Contains(o Order) bool {
	_, ok := s.orders[o.key()]
	return ok
}

func (s OrderSet) Len() int {
	return len(s.orders)
}

func (s OrderSet) Equal(other OrderSet) bool {
	if len(s.orders) != len(other.orders) {
		return false
	}
	for k := range s.orders {
		if _, ok := other.orders[k]; !ok {
			return false
		}
	}
	return true
}

// Orders lists the set sorted by ticker, then side, quantity and type.
func (s OrderSet) Orders() []Order {
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		if a.Quantity != b.Quantity {
			return a.Quantity < b.Quantity
		}
		if a.OrderType != b.OrderType {
			return a.OrderType < b.OrderType
		}
		return a.LimitPrice.LessThan(b.LimitPrice)
	})
	return out
}

// SellsFirst lists every SELL before any BUY, each group in Orders order,
// so that a broker frees cash before spending it.
func (s OrderSet) SellsFirst() []Order {
	sorted := s.Orders()
	out := make([]Order, 0, len(sorted))
	for _, o := range sorted {
		if o.Side == SideTypeSell {
			out = append(out, o)
		}
	}
	for _, o := range sorted {
		if o.Side != SideTypeSell {
			out = append(out, o)
		}
	}
	return out
}
