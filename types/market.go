package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeStock AssetType = "STOCK"
	AssetTypeEtf   AssetType = "ETF"
	AssetTypeFund  AssetType = "FUND"
)

type Asset struct {
	Id         int       `json:"id"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Type       AssetType `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

type Candle struct {
	AssetId   int             `json:"assetId"`
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}

// Closes extracts the close price series of candles, oldest first.
func Closes(candles []Candle) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}
