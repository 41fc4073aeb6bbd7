package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"rebalancer/internal/engine"
	"rebalancer/internal/handler"
	"rebalancer/internal/rebalance"
	"rebalancer/types"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type planCmd struct {
	file       string
	format     string
	cashTicker string
}

func (*planCmd) Name() string { return "plan" }
func (*planCmd) Synopsis() string {
	return "compute the orders that move an account to a target allocation"
}
func (*planCmd) Usage() string {
	return `rebalancer plan -f <plan.json> [-format markdown|json|csv] [-cash MMDA1]

  Reads {"balance", "target", "current", "prices"} from the plan file and
  prints the weight delta and the resulting orders, sells first.
`
}

func (c *planCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Path to the plan JSON file, - for stdin")
	f.StringVar(&c.format, "format", "markdown", "Output format (markdown, json, csv)")
	f.StringVar(&c.cashTicker, "cash", types.DefaultCashTicker, "Ticker of the uninvested cash position")
}

type planInput struct {
	Balance decimal.Decimal    `json:"balance"`
	Target  *types.WeightTable `json:"target"`
	Current *types.WeightTable `json:"current,omitempty"`
	Prices  types.PriceMap     `json:"prices"`
}

type planResult struct {
	Balance decimal.Decimal
	Delta   *types.WeightTable
	Orders  types.OrderSet
}

func (c *planCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -f flag is required.")
		return subcommands.ExitUsageError
	}
	switch c.format {
	case "markdown", "json", "csv":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q.\n", c.format)
		return subcommands.ExitUsageError
	}

	in, err := readPlanInput(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	result, err := computePlan(in, c.cashTicker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	switch c.format {
	case "json":
		err = writePlanJSON(os.Stdout, result)
	case "csv":
		err = engine.WriteOrdersCSV(os.Stdout, result.Orders)
	default:
		printMarkdown(planMarkdown(result))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func readPlanInput(path string) (*planInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open plan file: %w", err)
		}
		defer file.Close()
		r = file
	}
	var in planInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode plan file: %w", err)
	}
	if in.Target == nil {
		return nil, fmt.Errorf("plan file has no target")
	}
	return &in, nil
}

func computePlan(in *planInput, cashTicker string) (*planResult, error) {
	delta, err := rebalance.NewRebalancer(cashTicker).ComputeDelta(in.Target, in.Current)
	if err != nil {
		return nil, err
	}
	orders, err := rebalance.NewOrderBuilder(cashTicker).BuildOrders(in.Balance, delta, in.Prices)
	if err != nil {
		return nil, err
	}
	return &planResult{Balance: in.Balance, Delta: delta, Orders: orders}, nil
}

func writePlanJSON(w io.Writer, result *planResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Balance decimal.Decimal         `json:"balance"`
		Delta   *types.WeightTable      `json:"delta"`
		Orders  []handler.OrderResponse `json:"orders"`
	}{result.Balance, result.Delta, handler.OrderResponses(result.Orders)})
}

func planMarkdown(result *planResult) string {
	var b strings.Builder
	b.WriteString("# Rebalance Plan\n\n")
	fmt.Fprintf(&b, "Balance: %s\n\n", result.Balance.StringFixed(2))

	b.WriteString("## Delta\n\n")
	b.WriteString("| Ticker | Weight |\n|:---|---:|\n")
	for _, e := range result.Delta.Entries() {
		fmt.Fprintf(&b, "| %s | %s |\n", e.Ticker, e.Weight)
	}

	b.WriteString("\n## Orders\n\n")
	if result.Orders.Len() == 0 {
		b.WriteString("No orders: the account is already on target.\n")
		return b.String()
	}
	b.WriteString("| Side | Ticker | Quantity | Type |\n|:---|:---|---:|:---|\n")
	for _, o := range result.Orders.SellsFirst() {
		orderType := string(o.OrderType)
		if o.OrderType == types.TypeLimit {
			orderType += " @ " + o.LimitPrice.String()
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", o.Side, o.Ticker, o.Quantity, orderType)
	}
	return b.String()
}
