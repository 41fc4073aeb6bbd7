package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func closes(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func almostEqual(a decimal.Decimal, b float64) bool {
	return math.Abs(a.InexactFloat64()-b) < 1e-9
}

func TestReturns(t *testing.T) {
	got := Returns(closes("100", "110", "99"))
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("Returns() got = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Returns()[%d] got = %v, want %v", i, got[i], want[i])
		}
	}
	if Returns(closes("100")) != nil {
		t.Errorf("Returns() of a single price should be nil")
	}
}

func TestVolatility(t *testing.T) {
	tests := []struct {
		name   string
		closes []decimal.Decimal
		want   float64
	}{
		{"flat series", closes("100", "100", "100"), 0},
		{"too short", closes("100", "110"), 0},
		// returns 0.1 and -0.1: mean 0, sample variance 0.02
		{"alternating", closes("100", "110", "99"), math.Sqrt(0.02)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Volatility(tt.closes); !almostEqual(got, tt.want) {
				t.Errorf("Volatility() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSharpe(t *testing.T) {
	// returns 0.1, 0.1, -0.1 -> mean 1/30, sample std sqrt(0.04/3)
	series := closes("100", "110", "121", "108.9")
	want := (1.0 / 30.0) / math.Sqrt(0.04/3.0) * math.Sqrt(252)
	if got := Sharpe(series, decimal.Zero, 252); !almostEqual(got, want) {
		t.Errorf("Sharpe() got = %v, want %v", got, want)
	}
	if got := Sharpe(closes("100", "100", "100"), decimal.Zero, 252); !got.IsZero() {
		t.Errorf("Sharpe() of a flat series got = %v, want 0", got)
	}
	if got := Sharpe(series, decimal.RequireFromString("25.2"), 252); !got.IsNegative() {
		t.Errorf("Sharpe() with a large risk-free rate should be negative, got %v", got)
	}
}

func TestSortino(t *testing.T) {
	series := closes("100", "110", "121", "108.9")
	// one downside return of -0.1 over three periods
	want := (1.0 / 30.0) / math.Sqrt(0.01/3.0) * math.Sqrt(252)
	if got := Sortino(series, decimal.Zero, 252); !almostEqual(got, want) {
		t.Errorf("Sortino() got = %v, want %v", got, want)
	}
	if got := Sortino(closes("100", "110", "121"), decimal.Zero, 252); !got.IsZero() {
		t.Errorf("Sortino() without downside got = %v, want 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name       string
		values     []decimal.Decimal
		wantAbs    string
		wantPct    string
		wantPeak   int
		wantTrough int
	}{
		{"empty", nil, "0", "0", 0, 0},
		{"monotonic", closes("100", "110", "120"), "0", "0", 0, 0},
		{"single dip", closes("100", "120", "90", "130"), "30", "0.25", 1, 2},
		{"deeper second dip", closes("100", "80", "150", "75"), "75", "0.5", 2, 3},
		{"zero start is not a peak", closes("0", "100", "60"), "40", "0.4", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.values)
			if !got.Amount.Equal(decimal.RequireFromString(tt.wantAbs)) || !got.Percent.Equal(decimal.RequireFromString(tt.wantPct)) {
				t.Errorf("MaxDrawdown() got = %v/%v, want %v/%v", got.Amount, got.Percent, tt.wantAbs, tt.wantPct)
			}
			if got.Peak != tt.wantPeak || got.Trough != tt.wantTrough {
				t.Errorf("MaxDrawdown() got peak/trough = %d/%d, want %d/%d", got.Peak, got.Trough, tt.wantPeak, tt.wantTrough)
			}
		})
	}
}

func TestMeanStdDev(t *testing.T) {
	tests := []struct {
		name    string
		xs      []float64
		wantM   float64
		wantStd float64
	}{
		{"empty", nil, 0, 0},
		{"single value", []float64{0.5}, 0.5, 0},
		{"sample deviation", []float64{1, 2, 3, 4}, 2.5, math.Sqrt(5.0 / 3.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.xs); math.Abs(got-tt.wantM) > 1e-12 {
				t.Errorf("Mean() got = %v, want %v", got, tt.wantM)
			}
			if got := StdDev(tt.xs); math.Abs(got-tt.wantStd) > 1e-12 {
				t.Errorf("StdDev() got = %v, want %v", got, tt.wantStd)
			}
		})
	}
}

func TestRank(t *testing.T) {
	series := map[string][]decimal.Decimal{
		"UP":   closes("100", "101", "103", "104", "106"),
		"DOWN": closes("100", "98", "97", "95", "94"),
		"MIX":  closes("100", "105", "99", "104", "100"),
		"FLAT": closes("100", "100", "100", "100", "100"),
		"ZERO": closes("50", "50", "50"),
	}
	got, err := Rank(series, MethodSharpe, decimal.Zero, 252)
	if err != nil {
		t.Fatalf("Rank() unexpected error = %v", err)
	}
	if got[0].Ticker != "UP" || got[len(got)-1].Ticker != "DOWN" {
		t.Errorf("Rank() got = %v", got)
	}
	// FLAT and ZERO both score 0 and sort by ticker.
	for i := 1; i < len(got); i++ {
		if got[i-1].Value.Equal(got[i].Value) && got[i-1].Ticker > got[i].Ticker {
			t.Errorf("Rank() ties not ordered by ticker: %v", got)
		}
	}

	if _, err := Rank(series, Method("markowitz"), decimal.Zero, 252); !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("Rank() error = %v, want ErrInvalidMetric", err)
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod("SORTINO"); err != nil || m != MethodSortino {
		t.Errorf("ParseMethod() got = %v, %v", m, err)
	}
	if _, err := ParseMethod("volatility"); !errors.Is(err, ErrInvalidMetric) {
		t.Errorf("ParseMethod() error = %v, want ErrInvalidMetric", err)
	}
}
