package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rebalancer/internal/rebalance"
	"rebalancer/types"

	"github.com/shopspring/decimal"
)

func writePlanFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write plan file: %v", err)
	}
	return path
}

const rotationPlan = `{
  "balance": "10000",
  "target": {"IWM": "1.0"},
  "current": {"SPY": "0.75", "IWM": "0.25"},
  "prices": {"SPY": "300", "IWM": "100", "IWO": "200"}
}`

func TestReadPlanInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "rotation plan", body: rotationPlan},
		{name: "numbers instead of strings", body: `{"balance":10000,"target":{"SPY":0.5},"prices":{"SPY":300}}`},
		{name: "no target", body: `{"balance":"10000","prices":{}}`, wantErr: true},
		{name: "unknown field", body: `{"balance":"1","target":{},"prices":{},"dry":true}`, wantErr: true},
		{name: "malformed", body: `{"balance":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readPlanInput(writePlanFile(t, tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("readPlanInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestComputePlan(t *testing.T) {
	in, err := readPlanInput(writePlanFile(t, rotationPlan))
	if err != nil {
		t.Fatalf("readPlanInput() error = %v", err)
	}

	got, err := computePlan(in, types.DefaultCashTicker)
	if err != nil {
		t.Fatalf("computePlan() error = %v", err)
	}
	want := types.NewOrderSet(
		types.Order{Ticker: "SPY", Quantity: 25, Side: types.SideTypeSell, OrderType: types.TypeMarket},
		types.Order{Ticker: "IWM", Quantity: 75, Side: types.SideTypeBuy, OrderType: types.TypeMarket},
	)
	if !got.Orders.Equal(want) {
		t.Errorf("computePlan() got = %v, want %v", got.Orders.Orders(), want.Orders())
	}
}

func TestComputePlan_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      *planInput
		wantErr error
	}{
		{
			name: "negative weight",
			in: &planInput{
				Balance: decimal.NewFromInt(10000),
				Target: types.WeightTableFromMap(map[string]decimal.Decimal{
					"SPY": decimal.Zero,
					"IWM": decimal.RequireFromString("-0.1"),
				}),
			},
			wantErr: rebalance.ErrInvalidWeights,
		},
		{
			name: "zero balance",
			in: &planInput{
				Balance: decimal.Zero,
				Target:  types.WeightTableFromMap(map[string]decimal.Decimal{"SPY": decimal.RequireFromString("0.5")}),
				Prices:  types.PriceMap{"SPY": decimal.NewFromInt(300)},
			},
			wantErr: rebalance.ErrInvalidBalance,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computePlan(tt.in, types.DefaultCashTicker)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("computePlan() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func rotationResult(t *testing.T) *planResult {
	t.Helper()
	in, err := readPlanInput(writePlanFile(t, rotationPlan))
	if err != nil {
		t.Fatalf("readPlanInput() error = %v", err)
	}
	result, err := computePlan(in, types.DefaultCashTicker)
	if err != nil {
		t.Fatalf("computePlan() error = %v", err)
	}
	return result
}

func TestPlanMarkdown(t *testing.T) {
	md := planMarkdown(rotationResult(t))

	for _, want := range []string{
		"# Rebalance Plan",
		"Balance: 10000.00",
		"| SPY | 0.75 |",
		"| SELL | SPY | 25 | MARKET |",
		"| BUY | IWM | 75 | MARKET |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("planMarkdown() missing %q in:\n%s", want, md)
		}
	}
	if strings.Index(md, "| SELL |") > strings.Index(md, "| BUY |") {
		t.Errorf("planMarkdown() lists a buy before a sell:\n%s", md)
	}
}

func TestPlanMarkdown_NoOrders(t *testing.T) {
	md := planMarkdown(&planResult{Balance: decimal.NewFromInt(100), Delta: types.NewWeightTable()})

	if !strings.Contains(md, "No orders") {
		t.Errorf("planMarkdown() got = %q, want a no orders line", md)
	}
}

func TestWritePlanJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writePlanJSON(&buf, rotationResult(t)); err != nil {
		t.Fatalf("writePlanJSON() error = %v", err)
	}

	var got struct {
		Orders []struct {
			Ticker   string `json:"ticker"`
			Side     string `json:"side"`
			Quantity int64  `json:"quantity"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got.Orders) != 2 {
		t.Fatalf("writePlanJSON() got %d orders, want 2", len(got.Orders))
	}
	if got.Orders[0].Side != "SELL" || got.Orders[0].Ticker != "SPY" || got.Orders[0].Quantity != 25 {
		t.Errorf("writePlanJSON() first order = %+v, want SELL 25 SPY", got.Orders[0])
	}
}
