package engine

import (
	"time"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

const (
	rejectNoPrice         = "No market price for ticker"
	rejectInvalidOrder    = "Invalid order"
	rejectNotEnoughCash   = "Not enough cash available for buy"
	rejectOversell        = "Sell exceeds position and short selling is disabled"
	rejectLimitNotCrossed = "Market price does not satisfy limit"
)

// paperBroker fills orders immediately at the supplied price. It never
// mutates the portfolio; the engine applies the reports afterwards.
//
//   - SELLs are executed before BUYs so proceeds fund purchases
//   - Buys are rejected when price * qty + fee exceeds the remaining cash
//   - Sells beyond the held quantity are rejected unless shorting is allowed
//   - LIMIT orders fill at the market price only when it is at or better
//     than the limit
type paperBroker struct {
	fees              *FeeConfig
	allowShortSelling bool
}

func newPaperBroker(fees *FeeConfig, allowShortSelling bool) *paperBroker {
	return &paperBroker{
		fees:              fees,
		allowShortSelling: allowShortSelling,
	}
}

func (b *paperBroker) Execute(orders types.OrderSet, view types.PortfolioView, prices types.PriceMap, now time.Time) []types.ExecutionReport {
	execReports := make([]types.ExecutionReport, 0, orders.Len())
	remainingCash := view.Cash
	holdings := make(map[string]decimal.Decimal, len(view.Positions))
	for sym, pos := range view.Positions {
		holdings[sym] = pos.Quantity
	}

	for _, order := range orders.SellsFirst() {
		if err := order.Validate(); err != nil {
			execReports = append(execReports, types.NewRejectedReport(order, rejectInvalidOrder, now))
			continue
		}
		price, ok := prices.Lookup(order.Ticker)
		if !ok {
			execReports = append(execReports, types.NewRejectedReport(order, rejectNoPrice, now))
			continue
		}
		if !limitSatisfied(order, price) {
			execReports = append(execReports, types.NewRejectedReport(order, rejectLimitNotCrossed, now))
			continue
		}

		qty := decimal.NewFromInt(order.Quantity)
		tradeValue := price.Mul(qty)
		fee := b.fees.fee(tradeValue)

		switch order.Side {
		case types.SideTypeBuy:
			totalCost := tradeValue.Add(fee)
			if totalCost.GreaterThan(remainingCash) {
				execReports = append(execReports, types.NewRejectedReport(order, rejectNotEnoughCash, now))
				continue
			}
			remainingCash = remainingCash.Sub(totalCost)
			holdings[order.Ticker] = holdings[order.Ticker].Add(qty)

		case types.SideTypeSell:
			held := holdings[order.Ticker]
			if !b.allowShortSelling && qty.GreaterThan(held) {
				execReports = append(execReports, types.NewRejectedReport(order, rejectOversell, now))
				continue
			}
			proceeds := remainingCash.Add(tradeValue).Sub(fee)
			if proceeds.IsNegative() {
				execReports = append(execReports, types.NewRejectedReport(order, rejectNotEnoughCash, now))
				continue
			}
			remainingCash = proceeds
			holdings[order.Ticker] = held.Sub(qty)
		}

		fill := types.NewFill(now, price, qty, fee)
		execReports = append(execReports, types.NewFilledReport(order, fill))
	}

	return execReports
}

func limitSatisfied(order types.Order, price decimal.Decimal) bool {
	if order.OrderType != types.TypeLimit {
		return true
	}
	if order.Side == types.SideTypeBuy {
		return price.LessThanOrEqual(order.LimitPrice)
	}
	return price.GreaterThanOrEqual(order.LimitPrice)
}
