package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrInvalidOrder = errors.New("invalid order")

// Order is an immutable instruction to trade whole shares of a ticker.
// Two orders are the same order when all their fields are equal; the limit
// price is compared by value.
type Order struct {
	Ticker     string
	Quantity   int64
	Side       Side
	OrderType  OrderType
	LimitPrice decimal.Decimal
}

func NewMarketOrder(ticker string, quantity int64, side Side) (Order, error) {
	o := Order{
		Ticker:    ticker,
		Quantity:  quantity,
		Side:      side,
		OrderType: TypeMarket,
	}
	return o, o.Validate()
}

func NewLimitOrder(ticker string, quantity int64, side Side, limitPrice decimal.Decimal) (Order, error) {
	o := Order{
		Ticker:     ticker,
		Quantity:   quantity,
		Side:       side,
		OrderType:  TypeLimit,
		LimitPrice: limitPrice,
	}
	return o, o.Validate()
}

// Validate checks quantity, side and type, and that LIMIT orders carry a
// positive limit price.
func (o Order) Validate() error {
	if o.Ticker == "" {
		return fmt.Errorf("empty ticker: %w", ErrInvalidOrder)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("ticker %s quantity %d must be positive: %w", o.Ticker, o.Quantity, ErrInvalidOrder)
	}
	if !o.Side.Valid() {
		return fmt.Errorf("ticker %s unknown side %q: %w", o.Ticker, o.Side, ErrInvalidOrder)
	}
	if !o.OrderType.Valid() {
		return fmt.Errorf("ticker %s unknown order type %q: %w", o.Ticker, o.OrderType, ErrInvalidOrder)
	}
	if o.OrderType == TypeLimit && !o.LimitPrice.IsPositive() {
		return fmt.Errorf("ticker %s limit order without positive limit price: %w", o.Ticker, ErrInvalidOrder)
	}
	return nil
}

func (o Order) Equal(other Order) bool {
	return o.key() == other.key()
}

func (o Order) String() string {
	if o.OrderType == TypeLimit {
		return fmt.Sprintf("%s %d %s %s @ %s", o.Side, o.Quantity, o.Ticker, o.OrderType, o.LimitPrice)
	}
	return fmt.Sprintf("%s %d %s %s", o.Side, o.Quantity, o.Ticker, o.OrderType)
}

// orderKey is the comparable form of an Order. decimal.Decimal holds a
// pointer, so the limit price is keyed by its canonical string.
type orderKey struct {
	ticker    string
	quantity  int64
	side      Side
	orderType OrderType
	limit     string
}

func (o Order) key() orderKey {
	limit := ""
	if o.OrderType == TypeLimit || !o.LimitPrice.IsZero() {
		limit = o.LimitPrice.String()
	}
	return orderKey{
		ticker:    o.Ticker,
		quantity:  o.Quantity,
		side:      o.Side,
		orderType: o.OrderType,
		limit:     limit,
	}
}
