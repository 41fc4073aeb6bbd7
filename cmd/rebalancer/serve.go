package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"rebalancer/internal/engine"
	"rebalancer/internal/handler"
	"rebalancer/internal/rebalance"

	"github.com/google/subcommands"
)

type serveCmd struct {
	envFile string
	account bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve rebalance plans over HTTP" }
func (*serveCmd) Usage() string {
	return `rebalancer serve [-env .env] [-account]

  Serves POST /v1/rebalance. With -account it also runs the paper account
  on REBALANCE_SCHEDULE and serves /v1/account and /v1/cycles.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.envFile, "env", ".env", "Optional dotenv file")
	f.BoolVar(&c.account, "account", false, "Run and expose the scheduled paper account")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.envFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	planner := handler.NewPlanHandler(rebalance.NewRebalancer(cfg.CashTicker), rebalance.NewOrderBuilder(cfg.CashTicker))
	var account *handler.AccountHandler
	if c.account {
		eng, closeDB, err := newEngine(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to start engine", slog.String("error", err.Error()))
			return subcommands.ExitFailure
		}
		defer closeDB()

		scheduler, err := engine.NewScheduler(cfg.RebalanceSchedule, eng, logger)
		if err != nil {
			logger.Error("failed to start scheduler", slog.String("error", err.Error()))
			return subcommands.ExitFailure
		}
		stopScheduler := startScheduler(ctx, scheduler, logger)
		defer stopScheduler()
		account = handler.NewAccountHandler(eng, cfg.Currency, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(planner, account, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		return subcommands.ExitFailure
	}
	logger.Info("server stopped")
	return subcommands.ExitSuccess
}
