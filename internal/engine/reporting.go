package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"rebalancer/internal/indicator"
	"rebalancer/types"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

type Report struct {
	// Meta / period info
	StartDate   time.Time
	TotalPeriod time.Duration
	Cycles      int

	// Orders
	TotalOrders    int
	FilledOrders   int
	RejectedOrders int

	// Absolute performance
	StartValue decimal.Decimal
	EndValue   decimal.Decimal
	NetProfit  decimal.Decimal
	CAGR       decimal.Decimal

	// Drawdown metrics
	MaxDrawdown        decimal.Decimal
	MaxDrawdownPercent decimal.Decimal
	MaxDrawdownDays    time.Duration

	// Risk-adjusted metrics
	SharpeRatio  decimal.Decimal
	SortinoRatio decimal.Decimal

	// Costs
	TotalFees decimal.Decimal
}

// Markdown renders the report as a markdown document with amounts
// formatted in currency.
func (r *Report) Markdown(currency string) string {
	var b strings.Builder
	b.WriteString("# Rebalance Report\n\n")
	fmt.Fprintf(&b, "- Start Date: %s\n", r.StartDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Total Period: %d days\n", r.TotalPeriod/(24*time.Hour))
	fmt.Fprintf(&b, "- Cycles: %d\n", r.Cycles)

	b.WriteString("\n## Orders\n\n")
	b.WriteString("| Total | Filled | Rejected |\n|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d |\n", r.TotalOrders, r.FilledOrders, r.RejectedOrders)

	b.WriteString("\n## Performance\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Start Value | %s |\n", formatMoney(r.StartValue, currency))
	fmt.Fprintf(&b, "| End Value | %s |\n", formatMoney(r.EndValue, currency))
	fmt.Fprintf(&b, "| Net Profit | %s |\n", formatMoney(r.NetProfit, currency))
	fmt.Fprintf(&b, "| CAGR | %s%% |\n", r.CAGR.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(&b, "| Max Drawdown | %s |\n", formatMoney(r.MaxDrawdown, currency))
	fmt.Fprintf(&b, "| Max Drawdown %% | %s%% |\n", r.MaxDrawdownPercent.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(&b, "| Max Drawdown Days | %d |\n", r.MaxDrawdownDays/(24*time.Hour))
	fmt.Fprintf(&b, "| Sharpe Ratio | %s |\n", r.SharpeRatio.StringFixed(2))
	fmt.Fprintf(&b, "| Sortino Ratio | %s |\n", r.SortinoRatio.StringFixed(2))
	fmt.Fprintf(&b, "| Total Fees | %s |\n", formatMoney(r.TotalFees, currency))
	return b.String()
}

// formatMoney truncates amount to the currency's minor unit and formats it
// with the currency's symbol and grouping.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(amount.Mul(factor).IntPart(), currency).Display()
}

func (e *Engine) generateReport(start, end time.Time, results *portfolio) *Report {
	snapshots := results.getSnapshots()
	executions := results.getExecutions()

	report := &Report{}
	report.StartDate = start
	report.TotalPeriod = end.Sub(start).Truncate(time.Hour * 24)
	report.Cycles = len(snapshots) - 1
	if report.Cycles < 0 {
		report.Cycles = 0
	}
	if len(snapshots) > 0 {
		report.StartValue = portfolioValue(snapshots[0])
		report.EndValue = portfolioValue(snapshots[len(snapshots)-1])
		report.NetProfit = report.EndValue.Sub(report.StartValue)
	}

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		report.TotalOrders, report.FilledOrders, report.RejectedOrders = calcOrderCounts(executions, &wg)
	}()
	go func() {
		report.TotalFees = calcTotalFees(executions, &wg)
	}()
	go func() {
		report.CAGR = calcCAGR(snapshots, &wg)
	}()
	go func() {
		report.MaxDrawdown, report.MaxDrawdownPercent, report.MaxDrawdownDays = calcDrawdownMetrics(snapshots, &wg)
	}()
	go func() {
		report.SharpeRatio = calcSharpeRatio(snapshots, e.reporting.sharpeRiskFreeRate, &wg)
	}()
	go func() {
		report.SortinoRatio = calcSortinoRatio(snapshots, e.reporting.sharpeRiskFreeRate, &wg)
	}()
	wg.Wait()

	return report
}

func calcOrderCounts(executions []types.ExecutionReport, wg *sync.WaitGroup) (int, int, int) {
	defer wg.Done()
	filled, rejected := 0, 0
	for _, er := range executions {
		switch er.Status {
		case types.OrderFilled:
			filled++
		case types.OrderRejected:
			rejected++
		}
	}
	return len(executions), filled, rejected
}

func calcTotalFees(executions []types.ExecutionReport, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	total := decimal.Zero
	for _, er := range executions {
		for _, fill := range er.Fills {
			total = total.Add(fill.Fee)
		}
	}
	return total
}

func calcCAGR(snapshots []types.PortfolioView, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	if len(snapshots) < 2 {
		return decimal.Zero
	}

	startSnap := snapshots[0]
	endSnap := snapshots[len(snapshots)-1]

	startVal := portfolioValue(startSnap)
	endVal := portfolioValue(endSnap)

	// If starting value is <= 0, CAGR is not well-defined
	if !startVal.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	// time difference in years (using 365.25 days to account for leap years)
	duration := endSnap.Time.Sub(startSnap.Time)
	if duration <= 0 {
		return decimal.Zero
	}
	years := duration.Hours() / (24.0 * 365.25)

	ratio := endVal.Div(startVal)
	if !ratio.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	cagrFloat := math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0
	return decimal.NewFromFloat(cagrFloat)
}

func calcDrawdownMetrics(
	snapshots []types.PortfolioView,
	wg *sync.WaitGroup,
) (decimal.Decimal, decimal.Decimal, time.Duration) {
	defer wg.Done()

	if len(snapshots) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	values := make([]decimal.Decimal, len(snapshots))
	for i, snap := range snapshots {
		values[i] = portfolioValue(snap)
	}
	dd := indicator.MaxDrawdown(values)
	return dd.Amount, dd.Percent, snapshots[dd.Trough].Time.Sub(snapshots[dd.Peak].Time)
}

func calcSharpeRatio(
	snapshots []types.PortfolioView,
	annualRiskFree decimal.Decimal,
	wg *sync.WaitGroup,
) decimal.Decimal {
	defer wg.Done()
	monthlyReturns := getMonthlyReturns(snapshots)
	if len(monthlyReturns) < 2 {
		// Need at least 2 months to compute stddev
		return decimal.Zero
	}

	// rf_monthly = (1 + rf_annual)^(1/12) - 1
	rfMonthlyFloat := math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/12.0) - 1.0

	excess := make([]float64, 0, len(monthlyReturns))
	for _, r := range monthlyReturns {
		excess = append(excess, r.InexactFloat64()-rfMonthlyFloat)
	}

	meanMonthlyExcess := indicator.Mean(excess)
	stdMonthly := indicator.StdDev(excess)
	if stdMonthly < 1e-12 {
		return decimal.Zero
	}

	// Monthly Sharpe, then annualize by sqrt(12)
	sharpeAnnual := meanMonthlyExcess / stdMonthly * math.Sqrt(12.0)
	return decimal.NewFromFloat(sharpeAnnual)
}

func calcSortinoRatio(
	snapshots []types.PortfolioView,
	annualRiskFree decimal.Decimal,
	wg *sync.WaitGroup,
) decimal.Decimal {
	defer wg.Done()
	return indicator.Sortino(getMonthEndValues(snapshots), annualRiskFree, types.PeriodsPerYear[types.Month])
}

// getMonthlyReturns computes returns between consecutive month-end values.
// A non-positive month-end cannot start a return and is skipped.
func getMonthlyReturns(snapshots []types.PortfolioView) []decimal.Decimal {
	monthEnds := getMonthEndValues(snapshots)
	if len(monthEnds) < 2 {
		return nil
	}

	returns := make([]decimal.Decimal, 0, len(monthEnds)-1)
	prev := monthEnds[0]
	for _, curr := range monthEnds[1:] {
		if !prev.GreaterThan(decimal.Zero) {
			prev = curr
			continue
		}
		returns = append(returns, curr.Div(prev).Sub(decimal.NewFromInt(1)))
		prev = curr
	}
	return returns
}

// getMonthEndValues returns the value of the last snapshot in each
// calendar month, oldest month first.
func getMonthEndValues(snapshots []types.PortfolioView) []decimal.Decimal {
	if len(snapshots) == 0 {
		return nil
	}

	sorted := append([]types.PortfolioView(nil), snapshots...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	type monthKey struct {
		year  int
		month time.Month
	}

	var keys []monthKey
	last := make(map[monthKey]types.PortfolioView)
	for _, snap := range sorted {
		y, m, _ := snap.Time.Date()
		key := monthKey{year: y, month: m}
		if _, ok := last[key]; !ok {
			keys = append(keys, key)
		}
		last[key] = snap
	}

	monthEnds := make([]decimal.Decimal, 0, len(keys))
	for _, k := range keys {
		monthEnds = append(monthEnds, portfolioValue(last[k]))
	}
	return monthEnds
}

func portfolioValue(view types.PortfolioView) decimal.Decimal {
	value := view.Cash
	for _, pos := range view.Positions {
		value = value.Add(pos.Quantity.Mul(pos.LastPrice))
	}
	return value
}
