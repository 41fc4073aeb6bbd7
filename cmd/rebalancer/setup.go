package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"rebalancer/internal/config"
	"rebalancer/internal/engine"
	"rebalancer/internal/indicator"
	"rebalancer/internal/rebalance"
	"rebalancer/internal/repository"
	"rebalancer/types"

	"github.com/charmbracelet/glamour"
)

type targetProvider interface {
	Target(ctx context.Context) (*types.WeightTable, error)
}

type backgroundRunner interface {
	Run(ctx context.Context) error
}

// startScheduler runs r in the background. The returned function cancels
// it and blocks until Run has returned, so a cycle in flight finishes
// before its dependencies are released.
func startScheduler(ctx context.Context, r backgroundRunner, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil {
			logger.Error("scheduler stopped", slog.String("error", err.Error()))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func loadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newEngine connects to the price database and assembles a paper-trading
// engine. The returned close function releases the database pool.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	var targets targetProvider
	if cfg.TargetFile != "" {
		static, err := engine.LoadStaticTarget(cfg.TargetFile)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		targets = static
	} else {
		if len(cfg.Universe) == 0 {
			db.Close()
			return nil, nil, fmt.Errorf("either TARGET_FILE or UNIVERSE must be set")
		}
		targets = indicator.NewSelector(db, indicator.SelectorConfig{
			Universe:       cfg.Universe,
			Interval:       cfg.Interval,
			Lookback:       cfg.Lookback,
			Method:         cfg.RankMethod,
			AnnualRiskFree: cfg.RiskFreeRate,
			TopN:           cfg.TopN,
			ChannelWindow:  cfg.ChannelWindow,
		}, logger)
	}

	eng := engine.NewEngine(
		rebalance.NewRebalancer(cfg.CashTicker),
		rebalance.NewOrderBuilder(cfg.CashTicker),
		targets,
		db,
		engine.NewPortfolioConfig(cfg.InitialCash, cfg.AllowShortSelling).WithCashReserve(cfg.CashReserve),
		engine.NewFeeConfig(cfg.FeeRate, cfg.MinFee, cfg.MaxFee),
		engine.NewReportingConfig(cfg.RiskFreeRate, cfg.OrdersCSVPath),
		logger,
	)
	return eng, db.Close, nil
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}
