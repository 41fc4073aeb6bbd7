package config

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var durationEnvKeys = []string{
	"READ_TIMEOUT",
	"WRITE_TIMEOUT",
	"IDLE_TIMEOUT",
	"SHUTDOWN_TIMEOUT",
}

var allEnvKeys = append([]string{
	"PORT", "LOG_LEVEL", "DATABASE_URL", "CASH_TICKER", "CURRENCY",
	"REBALANCE_SCHEDULE", "TARGET_FILE", "ORDERS_CSV_PATH", "INITIAL_CASH",
	"ALLOW_SHORT_SELLING", "FEE_RATE", "MIN_FEE", "MAX_FEE", "CASH_RESERVE", "RISK_FREE_RATE",
	"INTERVAL", "RANK_METHOD", "TOP_N", "CHANNEL_WINDOW", "UNIVERSE", "LOOKBACK",
}, durationEnvKeys...)

func unsetAllConfigEnv() {
	for _, key := range allEnvKeys {
		os.Unsetenv(key)
	}
}

func genDurationString() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		unit := rapid.SampledFrom([]string{"ms", "s", "m", "h"}).Draw(t, "unit")
		val := rapid.IntRange(1, 600).Draw(t, "val")
		return fmt.Sprintf("%d%s", val, unit)
	})
}

func TestProperty_ValidConfigParsing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		port := rapid.IntRange(1, 65535).Draw(t, "port")
		logLevel := rapid.SampledFrom(validLogLevels).Draw(t, "logLevel")
		topN := rapid.IntRange(1, 50).Draw(t, "topN")
		cents := rapid.Int64Range(0, 1_000_000_000).Draw(t, "cents")
		cash := decimal.New(cents, -2)

		os.Setenv("PORT", fmt.Sprintf("%d", port))
		os.Setenv("LOG_LEVEL", logLevel)
		os.Setenv("TOP_N", fmt.Sprintf("%d", topN))
		os.Setenv("INITIAL_CASH", cash.String())

		lookback := time.Duration(rapid.IntRange(72, 20000).Draw(t, "lookbackHours")) * time.Hour
		os.Setenv("LOOKBACK", lookback.String())

		durs := make(map[string]time.Duration, len(durationEnvKeys))
		for _, key := range durationEnvKeys {
			s := genDurationString().Draw(t, key)
			os.Setenv(key, s)
			durs[key], _ = time.ParseDuration(s)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error for valid inputs: %v", err)
		}
		if cfg.Port != port {
			t.Fatalf("Port = %d, want %d", cfg.Port, port)
		}
		if cfg.LogLevel != logLevel {
			t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, logLevel)
		}
		if cfg.TopN != topN {
			t.Fatalf("TopN = %d, want %d", cfg.TopN, topN)
		}
		if !cfg.InitialCash.Equal(cash) {
			t.Fatalf("InitialCash = %v, want %v", cfg.InitialCash, cash)
		}
		if cfg.Lookback != lookback {
			t.Fatalf("Lookback = %v, want %v", cfg.Lookback, lookback)
		}
		got := map[string]time.Duration{
			"READ_TIMEOUT":     cfg.ReadTimeout,
			"WRITE_TIMEOUT":    cfg.WriteTimeout,
			"IDLE_TIMEOUT":     cfg.IdleTimeout,
			"SHUTDOWN_TIMEOUT": cfg.ShutdownTimeout,
		}
		for key, want := range durs {
			if got[key] != want {
				t.Fatalf("%s = %v, want %v", key, got[key], want)
			}
		}
	})
}

func TestProperty_InvalidLogLevelReturnsError(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		invalidLevel := rapid.StringMatching(`[a-z]{1,20}`).Filter(func(s string) bool {
			for _, v := range validLogLevels {
				if s == v {
					return false
				}
			}
			return true
		}).Draw(t, "invalidLevel")

		os.Setenv("LOG_LEVEL", invalidLevel)
		if _, err := Load(); err == nil {
			t.Fatalf("Load() should return error for invalid LOG_LEVEL %q", invalidLevel)
		}
	})
}

func TestProperty_InvalidDecimalReturnsError(t *testing.T) {
	for _, key := range []string{"INITIAL_CASH", "FEE_RATE", "MIN_FEE", "MAX_FEE", "CASH_RESERVE", "RISK_FREE_RATE"} {
		t.Run(key, func(t *testing.T) {
			rapid.Check(t, func(t *rapid.T) {
				unsetAllConfigEnv()
				defer unsetAllConfigEnv()

				invalid := rapid.StringMatching(`[a-zA-Z]{1,10}`).Draw(t, "invalid")
				os.Setenv(key, invalid)
				if _, err := Load(); err == nil {
					t.Fatalf("Load() should return error for %s=%q", key, invalid)
				}
			})
		})
	}
}
