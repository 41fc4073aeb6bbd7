package indicator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidMetric = errors.New("invalid metric")

type Method string

const (
	MethodSharpe  Method = "sharpe"
	MethodSortino Method = "sortino"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(s)); m {
	case MethodSharpe, MethodSortino:
		return m, nil
	}
	return "", fmt.Errorf("method %q: %w", s, ErrInvalidMetric)
}

type Score struct {
	Ticker string
	Value  decimal.Decimal
}

// Rank scores every close series with method and sorts the result best
// first; equal scores are ordered by ticker.
func Rank(series map[string][]decimal.Decimal, method Method, annualRiskFree decimal.Decimal, periodsPerYear float64) ([]Score, error) {
	var score func([]decimal.Decimal, decimal.Decimal, float64) decimal.Decimal
	switch method {
	case MethodSharpe:
		score = Sharpe
	case MethodSortino:
		score = Sortino
	default:
		return nil, fmt.Errorf("method %q: %w", method, ErrInvalidMetric)
	}

	scores := make([]Score, 0, len(series))
	for ticker, closes := range series {
		scores = append(scores, Score{Ticker: ticker, Value: score(closes, annualRiskFree, periodsPerYear)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if !scores[i].Value.Equal(scores[j].Value) {
			return scores[i].Value.GreaterThan(scores[j].Value)
		}
		return scores[i].Ticker < scores[j].Ticker
	})
	return scores, nil
}
