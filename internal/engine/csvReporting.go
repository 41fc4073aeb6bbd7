package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"rebalancer/types"

	"github.com/google/uuid"
)

var executionsHeader = []string{
	"cycle_id",
	"ticker",
	"side",
	"order_type",
	"quantity",
	"limit_price",
	"status",
	"filled_qty",
	"avg_fill_price",
	"total_fees",
	"num_fills",
	"reject_reason",
	"report_time", // RFC3339
}

// appendExecutionsCSVFile appends one row per report to path, writing the
// header first when the file is new or empty.
func appendExecutionsCSVFile(path string, cycleID uuid.UUID, reports []types.ExecutionReport) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open executions file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat executions file: %w", err)
	}
	return writeExecutionsCSV(f, cycleID, reports, info.Size() == 0)
}

// writeExecutionsCSV writes reports to any io.Writer as CSV.
func writeExecutionsCSV(w io.Writer, cycleID uuid.UUID, reports []types.ExecutionReport, header bool) error {
	cw := csv.NewWriter(w)

	if header {
		if err := cw.Write(executionsHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, er := range reports {
		if err := writeExecutionRow(cw, cycleID.String(), er); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeExecutionRow(cw *csv.Writer, cycleID string, er types.ExecutionReport) error {
	limit := ""
	if er.Order.OrderType == types.TypeLimit {
		limit = er.Order.LimitPrice.String()
	}
	record := []string{
		cycleID,
		er.Order.Ticker,
		string(er.Order.Side),
		string(er.Order.OrderType),
		fmt.Sprintf("%d", er.Order.Quantity),
		limit,
		string(er.Status),
		er.FilledQty.String(),
		er.AvgFillPrice.String(),
		er.TotalFees.String(),
		fmt.Sprintf("%d", len(er.Fills)),
		er.RejectReason,
		er.ReportTime.Format(time.RFC3339),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// WriteOrdersCSV writes a plan's orders, one per row, in execution order.
func WriteOrdersCSV(w io.Writer, orders types.OrderSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ticker", "side", "order_type", "quantity", "limit_price"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orders.SellsFirst() {
		limit := ""
		if o.OrderType == types.TypeLimit {
			limit = o.LimitPrice.String()
		}
		record := []string{o.Ticker, string(o.Side), string(o.OrderType), fmt.Sprintf("%d", o.Quantity), limit}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
