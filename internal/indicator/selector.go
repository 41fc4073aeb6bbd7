package indicator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rebalancer/internal/repository"
	"rebalancer/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

var ErrEmptySelection = errors.New("no ticker in the universe has enough price history")

type candleSource interface {
	GetAssetByTicker(ctx context.Context, ticker string) (*types.Asset, error)
	GetAggregates(ctx context.Context, assetId int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error)
}

// MinCandles is the shortest history the selector ranks.
const MinCandles = 3

type SelectorConfig struct {
	Universe       []string
	Interval       types.Interval
	Lookback       time.Duration
	Method         Method
	AnnualRiskFree decimal.Decimal
	TopN           int
	// ChannelWindow drops tickers whose last close fell below the Donchian
	// channel of that many preceding candles. Zero disables the filter.
	ChannelWindow int
	ShowProgress  bool
}

// Selector builds target allocations by ranking a universe of tickers on
// their recent risk-adjusted return and holding the best TopN in equal
// weight.
type Selector struct {
	source candleSource
	cfg    SelectorConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewSelector(source candleSource, cfg SelectorConfig, logger *slog.Logger) *Selector {
	if cfg.Interval == "" {
		cfg.Interval = types.Day
	}
	if cfg.Method == "" {
		cfg.Method = MethodSharpe
	}
	return &Selector{
		source: source,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Target ranks the universe and returns the equal-weight top TopN. Each
// weight is truncated so the total never exceeds one.
func (s *Selector) Target(ctx context.Context) (*types.WeightTable, error) {
	periods, ok := types.PeriodsPerYear[s.cfg.Interval]
	if !ok {
		return nil, fmt.Errorf("interval %s has no annualisation factor: %w", s.cfg.Interval, repository.ErrIntervalNotSupported)
	}

	series, err := s.loadCloses(ctx)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, ErrEmptySelection
	}

	scores, err := Rank(series, s.cfg.Method, s.cfg.AnnualRiskFree, periods)
	if err != nil {
		return nil, err
	}
	n := s.cfg.TopN
	if n <= 0 || n > len(scores) {
		n = len(scores)
	}
	weight := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(int64(n)), 16).Truncate(12)

	target := types.NewWeightTable()
	for _, sc := range scores[:n] {
		target.Set(sc.Ticker, weight)
		s.logger.Debug("selected ticker",
			slog.String("ticker", sc.Ticker),
			slog.String("method", string(s.cfg.Method)),
			slog.String("score", sc.Value.StringFixed(4)),
		)
	}
	return target, nil
}

func (s *Selector) loadCloses(ctx context.Context) (map[string][]decimal.Decimal, error) {
	end := s.now()
	start := end.Add(-s.cfg.Lookback)
	bar := progressbar.NewOptions(len(s.cfg.Universe),
		progressbar.OptionSetVisibility(s.cfg.ShowProgress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("Loading price history..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	defer bar.Finish()

	series := make(map[string][]decimal.Decimal, len(s.cfg.Universe))
	for _, ticker := range s.cfg.Universe {
		_ = bar.Add(1)
		asset, err := s.source.GetAssetByTicker(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ticker, err)
		}
		candles, err := s.source.GetAggregates(ctx, asset.Id, ticker, s.cfg.Interval, start, end)
		if errors.Is(err, repository.ErrNoCandles) {
			s.logger.Warn("skipping ticker without history", slog.String("ticker", ticker))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", ticker, err)
		}
		if len(candles) < MinCandles {
			s.logger.Warn("skipping ticker with short history", slog.String("ticker", ticker), slog.Int("candles", len(candles)))
			continue
		}
		if BelowChannel(candles, s.cfg.ChannelWindow) {
			s.logger.Info("skipping ticker below its channel", slog.String("ticker", ticker), slog.Int("window", s.cfg.ChannelWindow))
			continue
		}
		series[ticker] = types.Closes(candles)
	}
	return series, nil
}
