package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"rebalancer/internal/indicator"
	"rebalancer/types"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for the rebalancer.
type Config struct {
	Port     int
	LogLevel string

	DatabaseURL string

	CashTicker        string
	Currency          string
	RebalanceSchedule string
	TargetFile        string
	OrdersCSVPath     string

	InitialCash       decimal.Decimal
	AllowShortSelling bool
	FeeRate           decimal.Decimal
	MinFee            decimal.Decimal
	MaxFee            decimal.Decimal
	CashReserve       decimal.Decimal

	RiskFreeRate  decimal.Decimal
	Lookback      time.Duration
	Interval      types.Interval
	RankMethod    indicator.Method
	TopN          int
	ChannelWindow int
	Universe      []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are given) into the environment. Variables already set win, and missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d out of range", port)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	initialCash, err := getDecimal("INITIAL_CASH", decimal.NewFromInt(100000))
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %w", err)
	}
	if initialCash.IsNegative() {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %s must not be negative", initialCash)
	}

	allowShort, err := getBool("ALLOW_SHORT_SELLING", false)
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOW_SHORT_SELLING: %w", err)
	}

	fees := make(map[string]decimal.Decimal, 3)
	for _, f := range []struct {
		key string
		def decimal.Decimal
	}{
		{"FEE_RATE", decimal.RequireFromString("0.0005")},
		{"MIN_FEE", decimal.RequireFromString("1.70")},
		{"MAX_FEE", decimal.RequireFromString("39")},
	} {
		v, err := getDecimal(f.key, f.def)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("invalid %s: %s must not be negative", f.key, v)
		}
		fees[f.key] = v
	}
	if fees["MAX_FEE"].IsPositive() && fees["MAX_FEE"].LessThan(fees["MIN_FEE"]) {
		return nil, fmt.Errorf("invalid MAX_FEE: %s below MIN_FEE %s", fees["MAX_FEE"], fees["MIN_FEE"])
	}

	reserve, err := getDecimal("CASH_RESERVE", decimal.RequireFromString("0.001"))
	if err != nil {
		return nil, fmt.Errorf("invalid CASH_RESERVE: %w", err)
	}
	if reserve.IsNegative() || reserve.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid CASH_RESERVE: %s must be in [0, 1)", reserve)
	}

	riskFree, err := getDecimal("RISK_FREE_RATE", decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_FREE_RATE: %w", err)
	}

	lookback, err := getDuration("LOOKBACK", 365*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid LOOKBACK: %w", err)
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("invalid LOOKBACK: %s must be positive", lookback)
	}

	interval, err := types.ParseInterval(getStr("INTERVAL", string(types.Day)))
	if err != nil {
		return nil, fmt.Errorf("invalid INTERVAL: %w", err)
	}
	if _, ok := types.PeriodsPerYear[interval]; !ok {
		return nil, fmt.Errorf("invalid INTERVAL: %s has no annualisation factor", interval)
	}
	if minLookback := indicator.MinCandles * types.IntervalToTime[interval]; lookback < minLookback {
		return nil, fmt.Errorf("invalid LOOKBACK: %s shorter than %d %s candles", lookback, indicator.MinCandles, interval)
	}

	method, err := indicator.ParseMethod(getStr("RANK_METHOD", string(indicator.MethodSharpe)))
	if err != nil {
		return nil, fmt.Errorf("invalid RANK_METHOD: %w", err)
	}

	topN, err := getInt("TOP_N", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid TOP_N: %w", err)
	}
	if topN < 1 {
		return nil, fmt.Errorf("invalid TOP_N: %d must be at least 1", topN)
	}

	channelWindow, err := getInt("CHANNEL_WINDOW", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_WINDOW: %w", err)
	}
	if channelWindow < 0 {
		return nil, fmt.Errorf("invalid CHANNEL_WINDOW: %d must not be negative", channelWindow)
	}

	durations := make(map[string]time.Duration, 4)
	for _, d := range []struct {
		key string
		def time.Duration
	}{
		{"READ_TIMEOUT", 5 * time.Second},
		{"WRITE_TIMEOUT", 10 * time.Second},
		{"IDLE_TIMEOUT", 60 * time.Second},
		{"SHUTDOWN_TIMEOUT", 10 * time.Second},
	} {
		v, err := getDuration(d.key, d.def)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		durations[d.key] = v
	}

	return &Config{
		Port:              port,
		LogLevel:          logLevel,
		DatabaseURL:       getStr("DATABASE_URL", ""),
		CashTicker:        strings.ToUpper(getStr("CASH_TICKER", types.DefaultCashTicker)),
		Currency:          strings.ToUpper(getStr("CURRENCY", "USD")),
		RebalanceSchedule: getStr("REBALANCE_SCHEDULE", "30 15 * * 1-5"),
		TargetFile:        getStr("TARGET_FILE", ""),
		OrdersCSVPath:     getStr("ORDERS_CSV_PATH", ""),
		InitialCash:       initialCash,
		AllowShortSelling: allowShort,
		FeeRate:           fees["FEE_RATE"],
		MinFee:            fees["MIN_FEE"],
		MaxFee:            fees["MAX_FEE"],
		CashReserve:       reserve,
		RiskFreeRate:      riskFree,
		Lookback:          lookback,
		Interval:          interval,
		RankMethod:        method,
		TopN:              topN,
		ChannelWindow:     channelWindow,
		Universe:          getList("UNIVERSE"),
		ReadTimeout:       durations["READ_TIMEOUT"],
		WriteTimeout:      durations["WRITE_TIMEOUT"],
		IdleTimeout:       durations["IDLE_TIMEOUT"],
		ShutdownTimeout:   durations["SHUTDOWN_TIMEOUT"],
	}, nil
}

func getStr(key, defaultVal string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func getDecimal(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	v := getStr(key, "")
	if v == "" {
		return defaultVal, nil
	}
	return decimal.NewFromString(v)
}

// getList splits a comma separated list, upper-casing and dropping blanks.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(getStr(key, ""), ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
