package engine

import (
	"context"
	"time"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

type priceSource interface {
	GetLatestPrices(ctx context.Context, tickers []string) (types.PriceMap, error)
}

type targetProvider interface {
	Target(ctx context.Context) (*types.WeightTable, error)
}

type broker interface {
	Execute(orders types.OrderSet, view types.PortfolioView, prices types.PriceMap, now time.Time) []types.ExecutionReport
}

type deltaComputer interface {
	ComputeDelta(target, current *types.WeightTable) (*types.WeightTable, error)
	CashTicker() string
}

type orderBuilder interface {
	BuildOrders(balance decimal.Decimal, delta *types.WeightTable, prices types.PriceMap) (types.OrderSet, error)
}
