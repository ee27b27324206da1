package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "DEMA_BOT_"

// Load builds the configuration from the defaults, the TOML file at path
// (skipped when path is empty), the .env files and DEMA_BOT_* variables,
// in that order. The result is not validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Exchange.Name = getEnv("EXCHANGE", cfg.Exchange.Name)
	cfg.Exchange.APIKey = getEnv("API_KEY", cfg.Exchange.APIKey)
	cfg.Exchange.APISecret = getEnv("API_SECRET", cfg.Exchange.APISecret)
	cfg.Exchange.Testnet = getEnvBool("TESTNET", cfg.Exchange.Testnet)
	cfg.Exchange.BaseURL = getEnv("BASE_URL", cfg.Exchange.BaseURL)
	cfg.Exchange.WeightPerMinute = getEnvInt("WEIGHT_PER_MINUTE", cfg.Exchange.WeightPerMinute)

	cfg.Strategy.Symbol = getEnv("SYMBOL", cfg.Strategy.Symbol)
	cfg.Strategy.Interval = getEnv("INTERVAL", cfg.Strategy.Interval)
	cfg.Strategy.Window = getEnvInt("WINDOW", cfg.Strategy.Window)
	cfg.Strategy.Threshold = getEnvFloat("THRESHOLD", cfg.Strategy.Threshold)
	cfg.Strategy.ProfitThreshold = getEnvFloat("PROFIT_THRESHOLD", cfg.Strategy.ProfitThreshold)

	cfg.Trading.Quantity = getEnvFloat("QUANTITY", cfg.Trading.Quantity)
	cfg.Trading.OrderType = getEnv("ORDER_TYPE", cfg.Trading.OrderType)
	cfg.Trading.SleepInterval.Duration = getEnvDuration("SLEEP_INTERVAL", cfg.Trading.SleepInterval.Duration)
	cfg.Trading.Lookback.Duration = getEnvDuration("LOOKBACK", cfg.Trading.Lookback.Duration)
	cfg.Trading.PendingOrderCycles = getEnvInt("PENDING_ORDER_CYCLES", cfg.Trading.PendingOrderCycles)
	cfg.Trading.DryRun = getEnvBool("DRY_RUN", cfg.Trading.DryRun)

	cfg.Backtest.DataFile = getEnv("DATA_FILE", cfg.Backtest.DataFile)

	cfg.Monitoring.Enabled = getEnvBool("METRICS_ENABLED", cfg.Monitoring.Enabled)
	cfg.Monitoring.Port = getEnvInt("METRICS_PORT", cfg.Monitoring.Port)

	cfg.Logging.Dir = getEnv("LOG_DIR", cfg.Logging.Dir)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", cfg.Notifications.TelegramToken)
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", cfg.Notifications.TelegramChatID)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(EnvPrefix + key)); err == nil {
		return n
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(EnvPrefix+key), 64); err == nil {
		return f
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(EnvPrefix + key)); err == nil {
		return b
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(EnvPrefix + key)); err == nil {
		return d
	}
	return defaultVal
}
