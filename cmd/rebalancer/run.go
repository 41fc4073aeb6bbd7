package main

import (
	"context"
	"flag"
	"log/slog"
	"os/signal"
	"syscall"

	"rebalancer/internal/engine"

	"github.com/google/subcommands"
)

type runCmd struct {
	envFile string
	once    bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "rebalance the paper account on a cron schedule" }
func (*runCmd) Usage() string {
	return `rebalancer run [-env .env] [-once]

  Rebalances the paper account on REBALANCE_SCHEDULE until interrupted,
  then prints the performance report.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.envFile, "env", ".env", "Optional dotenv file")
	f.BoolVar(&c.once, "once", false, "Run a single cycle immediately and exit")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.envFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, closeDB, err := newEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start engine", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	defer closeDB()

	if c.once {
		if _, err := eng.RunCycle(ctx); err != nil {
			logger.Error("rebalance failed", slog.String("error", err.Error()))
			return subcommands.ExitFailure
		}
		printMarkdown(eng.Report().Markdown(cfg.Currency))
		return subcommands.ExitSuccess
	}

	scheduler, err := engine.NewScheduler(cfg.RebalanceSchedule, eng, logger)
	if err != nil {
		logger.Error("failed to start scheduler", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	scheduler.OnResult(func(r *engine.CycleResult) {
		logger.Info("cycle done",
			slog.String("cycle_id", r.ID.String()),
			slog.Int("orders", r.Orders.Len()),
			slog.Int("filled", r.Filled()),
			slog.String("balance", r.Balance.String()),
		)
	})
	if err := scheduler.Run(ctx); err != nil {
		logger.Error("scheduler stopped", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}

	printMarkdown(eng.Report().Markdown(cfg.Currency))
	return subcommands.ExitSuccess
}
