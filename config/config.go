package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BROKER_API_KEY"),
			SecretKey: os.Getenv("BROKER_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Trading: TradingConfig{
			RiskPercent:      EnvtoFloat(os.Getenv("RISK_PERCENT"), 1.0),
			StopLossPips:     EnvtoFloat(os.Getenv("STOPLOSS_PIPS"), 50.0),
			TakeProfitPips:   EnvtoFloat(os.Getenv("TAKEPROFIT_PIPS"), 100.0),
			SpreadCeiling:    EnvtoFloat(os.Getenv("SPREAD_CEILING_POINTS"), 50.0),
			MaxRetries:       EnvtoIntDefault(os.Getenv("ORDER_MAX_RETRIES"), 3),
			RetryDelaySecs:   EnvtoIntDefault(os.Getenv("ORDER_RETRY_DELAY_SECS"), 1),
			DefaultTimeframe: envOrDefault("DEFAULT_TIMEFRAME", "H1"),
			DefaultStrategy:  envOrDefault("DEFAULT_STRATEGY", "simple_ma"),
		},
		Monitor: MonitorConfig{
			IntervalSecs: EnvtoIntDefault(os.Getenv("MONITOR_INTERVAL_SECS"), 5),
			BarWindow:    EnvtoIntDefault(os.Getenv("MONITOR_BAR_WINDOW"), 50),
		},
		Symbols:     getSymbols(),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		MetricsAddr: envOrDefault("METRICS_ADDR", ":9180"),
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func EnvtoIntDefault(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func EnvtoFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// helper to get symbols
func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"EURUSD", "GBPUSD"} // Default pairs if none specified
	}
	return strings.Split(symbols, ",")
}
