package types

type Side string

type OrderType string

type OrderStatus string

const (
	OrderFilled   OrderStatus = "ORDER_FILLED"
	OrderRejected OrderStatus = "ORDER_REJECTED"

	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"

	TypeMarket OrderType = "MARKET"
	TypeLimit  OrderType = "LIMIT"
)

func (s Side) Valid() bool {
	return s == SideTypeBuy || s == SideTypeSell
}

func (t OrderType) Valid() bool {
	return t == TypeMarket || t == TypeLimit
}
