package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionReport is the broker's answer to a single order.
type ExecutionReport struct {
	Order        Order
	Status       OrderStatus
	Fills        []Fill
	FilledQty    decimal.Decimal
	AvgFillPrice decimal.Decimal
	TotalFees    decimal.Decimal
	RejectReason string
	ReportTime   time.Time
}

type Fill struct {
	Time     time.Time
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Fee      decimal.Decimal
}

func NewFill(time time.Time, price, qty, fee decimal.Decimal) Fill {
	return Fill{
		Time:     time,
		Price:    price,
		Quantity: qty,
		Fee:      fee,
	}
}

func NewFilledReport(order Order, fill Fill) ExecutionReport {
	return ExecutionReport{
		Order:        order,
		Status:       OrderFilled,
		Fills:        []Fill{fill},
		FilledQty:    fill.Quantity,
		AvgFillPrice: fill.Price,
		TotalFees:    fill.Fee,
		ReportTime:   fill.Time,
	}
}

func NewRejectedReport(order Order, reason string, reportTime time.Time) ExecutionReport {
	return ExecutionReport{
		Order:        order,
		Status:       OrderRejected,
		FilledQty:    decimal.Zero,
		AvgFillPrice: decimal.Zero,
		TotalFees:    decimal.Zero,
		RejectReason: reason,
		ReportTime:   reportTime,
	}
}
