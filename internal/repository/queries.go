package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

type assetRow struct {
	ID         int32
	Ticker     string
	Name       string
	Type       string
	CreatedAt  *time.Time
	ModifiedAt *time.Time
}

const getAssetByTicker = `
SELECT id, ticker, name, type::text, created_at, modified_at
FROM assets
WHERE ticker = $1
LIMIT 1`

func (q *queries) GetAssetByTicker(ctx context.Context, ticker string) (assetRow, error) {
	var a assetRow
	err := q.db.QueryRow(ctx, getAssetByTicker, ticker).Scan(
		&a.ID,
		&a.Ticker,
		&a.Name,
		&a.Type,
		&a.CreatedAt,
		&a.ModifiedAt,
	)
	return a, err
}

type aggregatesParams struct {
	TimeBucket string
	AssetID    int32
	Starttime  *time.Time
	Endtime    *time.Time
}

type aggregateRow struct {
	Bucket  *time.Time
	AssetID int32
	Open    decimal.Decimal
	High    decimal.Decimal
	Low     decimal.Decimal
	Close   decimal.Decimal
	Volume  decimal.Decimal
}

// Candles are stored at their finest resolution and bucketed on read.
const getAggregates = `
SELECT time_bucket($1::interval, ts) AS bucket,
       asset_id,
       first(open, ts)  AS open,
       max(high)        AS high,
       min(low)         AS low,
       last(close, ts)  AS close,
       sum(volume)      AS volume
FROM candles
WHERE asset_id = $2 AND ts >= $3 AND ts < $4
GROUP BY bucket, asset_id
ORDER BY bucket`

func (q *queries) GetAggregates(ctx context.Context, arg aggregatesParams) ([]aggregateRow, error) {
	rows, err := q.db.Query(ctx, getAggregates, arg.TimeBucket, arg.AssetID, arg.Starttime, arg.Endtime)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[aggregateRow])
}

type latestCloseRow struct {
	Ticker string
	Close  decimal.Decimal
}

const getLatestCloses = `
SELECT DISTINCT ON (a.ticker) a.ticker, c.close
FROM candles c
JOIN assets a ON a.id = c.asset_id
WHERE a.ticker = ANY($1::text[])
ORDER BY a.ticker, c.ts DESC`

func (q *queries) GetLatestCloses(ctx context.Context, tickers []string) ([]latestCloseRow, error) {
	rows, err := q.db.Query(ctx, getLatestCloses, tickers)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[latestCloseRow])
}
