package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rebalancer/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrEmptyAccount = errors.New("account has no positive value")

// CycleResult describes one rebalance: what the engine wanted, what it
// ordered and what the broker did with it.
type CycleResult struct {
	ID       uuid.UUID
	Time     time.Time
	Balance  decimal.Decimal
	Target   *types.WeightTable
	Current  *types.WeightTable
	Delta    *types.WeightTable
	Orders   types.OrderSet
	Reports  []types.ExecutionReport
	Snapshot types.PortfolioView
}

// Filled counts the reports that moved the account.
func (r *CycleResult) Filled() int {
	n := 0
	for _, er := range r.Reports {
		if er.Status == types.OrderFilled {
			n++
		}
	}
	return n
}

type Engine struct {
	// cycles never overlap
	mu         sync.Mutex
	rebalancer deltaComputer
	builder    orderBuilder
	targets    targetProvider
	prices     priceSource
	account    *portfolio
	reserve    decimal.Decimal
	broker     broker
	reporting  *ReportingConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(
	rebalancer deltaComputer,
	builder orderBuilder,
	targets targetProvider,
	prices priceSource,
	portfolioConfig *PortfolioConfig,
	fees *FeeConfig,
	reportingConfig *ReportingConfig,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if reportingConfig == nil {
		reportingConfig = NewReportingConfig(decimal.Zero, "")
	}
	return &Engine{
		rebalancer: rebalancer,
		builder:    builder,
		targets:    targets,
		prices:     prices,
		account:    newPortfolio(portfolioConfig),
		reserve:    portfolioConfig.cashReserve,
		broker:     newPaperBroker(fees, portfolioConfig.allowShortSelling),
		reporting:  reportingConfig,
		logger:     logger,
		now:        time.Now,
	}
}

// Snapshot returns the current state of the paper account.
func (e *Engine) Snapshot() types.PortfolioView {
	return e.account.GetPortfolioSnapshot(e.now())
}

// RunCycle performs a full rebalance against the paper account. Any error
// before execution leaves the account untouched, including its last prices
// and recorded snapshots.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	result := &CycleResult{ID: uuid.New(), Time: now}
	log := e.logger.With("cycle_id", result.ID.String())

	target, err := e.targets.Target(ctx)
	if err != nil {
		return nil, fmt.Errorf("target weights: %w", err)
	}
	result.Target = target

	view := e.account.GetPortfolioSnapshot(now)
	tickers := e.pricedTickers(target, view)
	prices, err := e.prices.GetLatestPrices(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("latest prices: %w", err)
	}

	balance, err := view.Value(prices)
	if err != nil {
		return nil, fmt.Errorf("account value: %w", err)
	}
	if !balance.IsPositive() {
		return nil, fmt.Errorf("balance %s: %w", balance, ErrEmptyAccount)
	}
	result.Balance = balance

	current, err := view.Weights(prices, e.rebalancer.CashTicker())
	if err != nil {
		return nil, fmt.Errorf("current weights: %w", err)
	}
	result.Current = current

	delta, err := e.rebalancer.ComputeDelta(target, current)
	if err != nil {
		return nil, err
	}
	result.Delta = delta

	orders, err := e.builder.BuildOrders(balance, withCashReserve(delta, e.reserve), prices)
	if err != nil {
		return nil, err
	}
	result.Orders = orders

	e.account.markToMarket(prices)
	if len(e.account.getSnapshots()) == 0 {
		// opening equity for the report
		e.account.recordSnapshot(now)
	}
	view = e.account.GetPortfolioSnapshot(now)

	reports := e.broker.Execute(orders, view, prices, now)
	if err := e.account.processExecutions(reports); err != nil {
		return nil, fmt.Errorf("apply executions: %w", err)
	}
	result.Reports = reports
	result.Snapshot = e.account.recordSnapshot(now)

	if path := e.reporting.ordersCSVPath; path != "" {
		if err := appendExecutionsCSVFile(path, result.ID, reports); err != nil {
			log.Error("write orders csv", "path", path, "error", err)
		}
	}

	log.Info("rebalance cycle complete",
		"balance", balance.StringFixed(2),
		"orders", orders.Len(),
		"filled", result.Filled(),
		"rejected", len(reports)-result.Filled(),
	)
	return result, nil
}

// withCashReserve shrinks every buy (negative delta) by fraction. Sells are
// left whole so a liquidation still closes the position.
func withCashReserve(delta *types.WeightTable, fraction decimal.Decimal) *types.WeightTable {
	if !fraction.IsPositive() {
		return delta
	}
	keep := decimal.NewFromInt(1).Sub(fraction)
	out := types.NewWeightTable()
	delta.Ascend(func(e types.WeightEntry) bool {
		w := e.Weight
		if w.IsNegative() {
			w = w.Mul(keep)
		}
		out.Set(e.Ticker, w)
		return true
	})
	return out
}

// pricedTickers lists, sorted, every non-cash ticker of the target and the
// account.
func (e *Engine) pricedTickers(target *types.WeightTable, view types.PortfolioView) []string {
	cash := e.rebalancer.CashTicker()
	seen := make(map[string]struct{})
	for _, t := range target.Tickers() {
		seen[t] = struct{}{}
	}
	for _, t := range view.Tickers() {
		seen[t] = struct{}{}
	}
	delete(seen, cash)

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Report summarises the account history accumulated so far.
func (e *Engine) Report() *Report {
	snapshots := e.account.getSnapshots()
	if len(snapshots) == 0 {
		return &Report{}
	}
	return e.generateReport(snapshots[0].Time, snapshots[len(snapshots)-1].Time, e.account)
}
