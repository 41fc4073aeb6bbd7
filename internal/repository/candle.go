package repository

import (
	"context"
	"errors"
	"time"

	"rebalancer/types"

	"github.com/jackc/pgx/v5"
)

var bucketToInterval = map[types.Interval]string{
	types.Hour:  "1 hour",
	types.Day:   "1 day",
	types.Week:  "1 week",
	types.Month: "1 month",
}

// GetAggregates returns the candles of assetId between start and end,
// bucketed to interval and ordered oldest first.
func (db *Database) GetAggregates(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}
	args := aggregatesParams{
		TimeBucket: bucket,
		AssetID:    int32(assetId),
		Starttime:  &start,
		Endtime:    &end,
	}
	candles, err := db.candles.GetAggregates(ctx, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCandles
		}
		return nil, err
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(candles, interval, ticker), nil
}

func convertCandles(rows []aggregateRow, interval types.Interval, ticker string) []types.Candle {
	candles := make([]types.Candle, 0, len(rows))
	for _, row := range rows {
		c := types.Candle{
			AssetId:  int(row.AssetID),
			Ticker:   ticker,
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			Volume:   row.Volume,
			Interval: interval,
		}
		if row.Bucket != nil {
			c.Timestamp = *row.Bucket
		}
		candles = append(candles, c)
	}
	return candles
}
