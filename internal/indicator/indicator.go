package indicator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Returns computes simple period-over-period returns of a price series.
// Periods starting from a non-positive price are skipped.
func Returns(closes []decimal.Decimal) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	prev := closes[0]
	for _, curr := range closes[1:] {
		if !prev.GreaterThan(decimal.Zero) {
			prev = curr
			continue
		}
		r := curr.Div(prev).Sub(decimal.NewFromInt(1))
		out = append(out, r.InexactFloat64())
		prev = curr
	}
	return out
}

// Mean is the arithmetic mean, zero for an empty series.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the sample standard deviation, zero below two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var varianceSum float64
	for _, x := range xs {
		diff := x - m
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(xs)-1))
}

// Volatility is the sample standard deviation of per-period returns.
func Volatility(closes []decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(StdDev(Returns(closes)))
}

// excessReturns subtracts the per-period share of an annual risk-free rate.
func excessReturns(closes []decimal.Decimal, annualRiskFree decimal.Decimal, periodsPerYear float64) []float64 {
	returns := Returns(closes)
	rf := annualRiskFree.InexactFloat64() / periodsPerYear
	excess := make([]float64, 0, len(returns))
	for _, r := range returns {
		excess = append(excess, r-rf)
	}
	return excess
}

// Sharpe is the annualised mean excess return over its standard deviation.
// It is zero when fewer than two returns are available or they do not vary.
func Sharpe(closes []decimal.Decimal, annualRiskFree decimal.Decimal, periodsPerYear float64) decimal.Decimal {
	excess := excessReturns(closes, annualRiskFree, periodsPerYear)
	if len(excess) < 2 {
		return decimal.Zero
	}
	std := StdDev(excess)
	if std == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(Mean(excess) / std * math.Sqrt(periodsPerYear))
}

// Sortino replaces the Sharpe denominator with the downside deviation of
// excess returns below zero, averaged over all periods.
func Sortino(closes []decimal.Decimal, annualRiskFree decimal.Decimal, periodsPerYear float64) decimal.Decimal {
	excess := excessReturns(closes, annualRiskFree, periodsPerYear)
	if len(excess) < 2 {
		return decimal.Zero
	}
	var downside float64
	for _, x := range excess {
		if x < 0 {
			downside += x * x
		}
	}
	downsideDev := math.Sqrt(downside / float64(len(excess)))
	if downsideDev == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(Mean(excess) / downsideDev * math.Sqrt(periodsPerYear))
}

// Drawdown is the largest peak-to-trough drop of a value series. Peak and
// Trough index the series; Percent is the drop as a fraction of the peak.
type Drawdown struct {
	Amount  decimal.Decimal
	Percent decimal.Decimal
	Peak    int
	Trough  int
}

// MaxDrawdown scans values oldest first. A zero peak is replaced by the
// next value since no drop can be measured from it.
func MaxDrawdown(values []decimal.Decimal) Drawdown {
	dd := Drawdown{Amount: decimal.Zero, Percent: decimal.Zero}
	peak := decimal.Zero
	peakIdx := 0
	for i, v := range values {
		if i == 0 || v.GreaterThan(peak) || peak.IsZero() {
			peak = v
			peakIdx = i
		}
		if !peak.GreaterThan(decimal.Zero) {
			continue
		}
		if drop := peak.Sub(v); drop.GreaterThan(dd.Amount) {
			dd = Drawdown{Amount: drop, Percent: drop.Div(peak), Peak: peakIdx, Trough: i}
		}
	}
	return dd
}
