package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var UnknownSideErr = errors.New("unknown fill side")
var InsufficientBalanceErr = errors.New("insufficient balance when applying order fill")
var ShortSellNotAllowedErr = errors.New("short sell not allowed, broker sold more stock than in portfolio")

// portfolio is the paper account the engine rebalances. It is safe for
// concurrent use; the HTTP layer reads snapshots while cycles write.
type portfolio struct {
	mu                sync.RWMutex
	cash              decimal.Decimal
	positions         map[string]*Position
	executions        []types.ExecutionReport
	snapshots         []types.PortfolioView
	allowShortSelling bool
}

type Position struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

func newPortfolio(cfg *PortfolioConfig) *portfolio {
	return &portfolio{
		cash:              cfg.initialCash,
		positions:         make(map[string]*Position),
		allowShortSelling: cfg.allowShortSelling,
	}
}

func (p *portfolio) GetPortfolioSnapshot(curTime time.Time) types.PortfolioView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked(curTime)
}

func (p *portfolio) snapshotLocked(curTime time.Time) types.PortfolioView {
	view := types.PortfolioView{
		Cash:      p.cash,
		Positions: make(map[string]types.PositionSnapshot, len(p.positions)),
		Time:      curTime,
	}
	for sym, pos := range p.positions {
		if pos.Quantity.IsZero() {
			continue
		}
		view.Positions[sym] = types.PositionSnapshot{
			Symbol:    pos.Symbol,
			Quantity:  pos.Quantity,
			AvgCost:   pos.AvgCost,
			LastPrice: pos.LastPrice,
		}
	}
	return view
}

// markToMarket updates the last price of every held ticker found in prices.
func (p *portfolio) markToMarket(prices types.PriceMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for sym, pos := range p.positions {
		if price, ok := prices.Lookup(sym); ok {
			pos.LastPrice = price
		}
	}
}

// recordSnapshot appends the current state to the equity history.
func (p *portfolio) recordSnapshot(curTime time.Time) types.PortfolioView {
	p.mu.Lock()
	defer p.mu.Unlock()
	view := p.snapshotLocked(curTime)
	p.snapshots = append(p.snapshots, view)
	return view
}

func (p *portfolio) getSnapshots() []types.PortfolioView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]types.PortfolioView(nil), p.snapshots...)
}

func (p *portfolio) getExecutions() []types.ExecutionReport {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]types.ExecutionReport(nil), p.executions...)
}

// processExecutions applies filled reports to cash and positions. Reports
// are applied in report time order; rejected reports are kept for the
// history but move nothing.
func (p *portfolio) processExecutions(execs []types.ExecutionReport) error {
	if len(execs) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	sort.SliceStable(execs, func(i, j int) bool { return execs[i].ReportTime.Before(execs[j].ReportTime) })
	for _, er := range execs {
		p.executions = append(p.executions, er)
		if len(er.Fills) == 0 {
			continue
		}
		side := er.Order.Side
		if side != types.SideTypeBuy && side != types.SideTypeSell {
			return UnknownSideErr
		}

		fills := append([]types.Fill(nil), er.Fills...)
		sort.SliceStable(fills, func(i, j int) bool { return fills[i].Time.Before(fills[j].Time) })

		sym := er.Order.Ticker
		pos := p.positions[sym]
		if pos == nil {
			pos = &Position{Symbol: sym}
			p.positions[sym] = pos
		}

		for _, fill := range fills {
			quantity := fill.Quantity
			if side == types.SideTypeSell {
				quantity = quantity.Neg()
			}

			newCash := p.cash.Sub(fill.Price.Mul(quantity)).Sub(fill.Fee)
			if newCash.IsNegative() {
				return InsufficientBalanceErr
			}

			oldQty := pos.Quantity
			newQty := oldQty.Add(quantity)
			if !p.allowShortSelling && newQty.IsNegative() {
				return ShortSellNotAllowedErr
			}
			p.cash = newCash

			switch {
			case sameSide(oldQty, newQty):
				absOld := oldQty.Abs()
				absAdd := quantity.Abs()
				if newQty.Abs().GreaterThan(absOld) && !absAdd.IsZero() {
					pos.AvgCost = weightedAvg(pos.AvgCost, absOld, fill.Price, absAdd)
				}
				pos.Quantity = newQty

			case oldQty.IsZero():
				pos.Quantity = newQty
				pos.AvgCost = fill.Price

			case newQty.IsZero():
				pos.Quantity = decimal.Zero
				pos.AvgCost = decimal.Zero

			default:
				pos.Quantity = newQty
				pos.AvgCost = fill.Price
			}
			pos.LastPrice = fill.Price
		}
	}
	return nil
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
