package engine

import (
	"github.com/shopspring/decimal"
)

type PortfolioConfig struct {
	initialCash       decimal.Decimal
	allowShortSelling bool
	cashReserve       decimal.Decimal
}

func NewPortfolioConfig(initialCash decimal.Decimal, allowShortSelling bool) *PortfolioConfig {
	return &PortfolioConfig{
		initialCash:       initialCash,
		allowShortSelling: allowShortSelling,
	}
}

// WithCashReserve holds back fraction of every buy so commissions on a
// fully invested target can still be paid.
func (c *PortfolioConfig) WithCashReserve(fraction decimal.Decimal) *PortfolioConfig {
	c.cashReserve = fraction
	return c
}

// FeeConfig is a percentage-of-value commission clamped to [min, max].
// A zero max means the fee is unbounded above.
type FeeConfig struct {
	rate   decimal.Decimal
	minFee decimal.Decimal
	maxFee decimal.Decimal
}

func NewFeeConfig(rate, minFee, maxFee decimal.Decimal) *FeeConfig {
	return &FeeConfig{
		rate:   rate,
		minFee: minFee,
		maxFee: maxFee,
	}
}

// fee computes the commission for a trade of tradeValue.
func (c *FeeConfig) fee(tradeValue decimal.Decimal) decimal.Decimal {
	if c == nil || tradeValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	fee := tradeValue.Mul(c.rate)
	if fee.LessThan(c.minFee) {
		fee = c.minFee
	}
	if c.maxFee.IsPositive() && fee.GreaterThan(c.maxFee) {
		fee = c.maxFee
	}
	return fee
}

type ReportingConfig struct {
	sharpeRiskFreeRate decimal.Decimal
	ordersCSVPath      string
}

func NewReportingConfig(sharpeRiskFreeRate decimal.Decimal, ordersCSVPath string) *ReportingConfig {
	return &ReportingConfig{
		sharpeRiskFreeRate: sharpeRiskFreeRate,
		ordersCSVPath:      ordersCSVPath,
	}
}
