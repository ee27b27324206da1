package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "BTCUSDT", cfg.Strategy.Symbol)
	assert.Equal(t, "1m", cfg.Strategy.Interval)
	assert.Equal(t, 6, cfg.Strategy.Window)
	assert.Equal(t, 0.01, cfg.Strategy.Threshold)
	assert.Equal(t, 2.0, cfg.Strategy.ProfitThreshold)
	assert.Equal(t, 0.5, cfg.Trading.Quantity)
	assert.Equal(t, 6*time.Second, cfg.Trading.SleepInterval.Duration)
	assert.Equal(t, time.Hour, cfg.Trading.Lookback.Duration)
	assert.Equal(t, exchange.OrderTypeMarket, cfg.OrderType())
	assert.True(t, cfg.Exchange.Testnet)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.toml")
	content := `
[exchange]
name = "paper"

[strategy]
symbol = "ETHUSDT"
window = 8
threshold = 0.02

[trading]
order_type = "LIMIT"
sleep_interval = "30s"
pending_order_cycles = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "paper", cfg.Exchange.Name)
	assert.Equal(t, "ETHUSDT", cfg.Strategy.Symbol)
	assert.Equal(t, 8, cfg.Strategy.Window)
	assert.Equal(t, 0.02, cfg.Strategy.Threshold)
	assert.Equal(t, "1m", cfg.Strategy.Interval, "unset keys keep defaults")
	assert.Equal(t, exchange.OrderTypeLimit, cfg.OrderType())
	assert.Equal(t, 30*time.Second, cfg.Trading.SleepInterval.Duration)
	assert.Equal(t, 3, cfg.Trading.PendingOrderCycles)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEMA_BOT_SYMBOL", "SOLUSDT")
	t.Setenv("DEMA_BOT_WINDOW", "10")
	t.Setenv("DEMA_BOT_QUANTITY", "1.5")
	t.Setenv("DEMA_BOT_TESTNET", "false")
	t.Setenv("DEMA_BOT_SLEEP_INTERVAL", "1m")
	t.Setenv("DEMA_BOT_THRESHOLD", "not-a-number")

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "SOLUSDT", cfg.Strategy.Symbol)
	assert.Equal(t, 10, cfg.Strategy.Window)
	assert.Equal(t, 1.5, cfg.Trading.Quantity)
	assert.False(t, cfg.Exchange.Testnet)
	assert.Equal(t, time.Minute, cfg.Trading.SleepInterval.Duration)
	assert.Equal(t, 0.01, cfg.Strategy.Threshold, "unparsable values are ignored")
}

func TestLoad_EnvFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DEMA_BOT_API_KEY=file-key\nDEMA_BOT_API_SECRET=file-secret\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DEMA_BOT_API_KEY")
		os.Unsetenv("DEMA_BOT_API_SECRET")
	})

	cfg, err := Load("", envPath)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.Exchange.APIKey)
	assert.Equal(t, "file-secret", cfg.Exchange.APISecret)
	assert.NoError(t, cfg.Validate())

	redacted := cfg.Redacted()
	assert.Equal(t, "file***", redacted.Exchange.APIKey)
	assert.Equal(t, "file-key", cfg.Exchange.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing credentials", func(c *Config) {}, "api_key"},
		{"dry run needs no credentials", func(c *Config) { c.Trading.DryRun = true }, ""},
		{"unknown exchange", func(c *Config) { c.Exchange.Name = "kraken"; c.Trading.DryRun = true }, "not supported"},
		{"zero window", func(c *Config) { c.Exchange.Name = "paper"; c.Strategy.Window = 0 }, "strategy.window"},
		{"negative threshold", func(c *Config) { c.Exchange.Name = "paper"; c.Strategy.Threshold = -0.1 }, "strategy.threshold"},
		{"zero quantity", func(c *Config) { c.Exchange.Name = "paper"; c.Trading.Quantity = 0 }, "trading.quantity"},
		{"bad order type", func(c *Config) { c.Exchange.Name = "paper"; c.Trading.OrderType = "STOP" }, "order_type"},
		{"zero sleep", func(c *Config) { c.Exchange.Name = "paper"; c.Trading.SleepInterval.Duration = 0 }, "sleep_interval"},
		{"empty grid", func(c *Config) { c.Exchange.Name = "paper"; c.Backtest.WindowTo = 2 }, "window range"},
		{"negative weight budget", func(c *Config) { c.Exchange.Name = "paper"; c.Exchange.WeightPerMinute = -1 }, "weight_per_minute"},
		{"bad port", func(c *Config) { c.Exchange.Name = "paper"; c.Monitoring.Port = 70000 }, "monitoring.port"},
		{"lowercase limit", func(c *Config) { c.Exchange.Name = "paper"; c.Trading.OrderType = "limit" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestGatewayConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Exchange.APIKey = "k"
	gw := cfg.GatewayConfig()

	assert.Equal(t, "binance", gw.Name)
	assert.Equal(t, "k", gw.APIKey)
	assert.True(t, gw.Testnet)
	assert.Equal(t, 10*time.Second, gw.Timeout)
	assert.Equal(t, 2400, gw.WeightPerMinute)
}

func TestNotificationsConfig(t *testing.T) {
	t.Setenv("DEMA_BOT_TELEGRAM_TOKEN", "123456:ABC")
	t.Setenv("DEMA_BOT_TELEGRAM_CHAT_ID", "42")

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.Notifications.Enabled())
	assert.Equal(t, "1234***", cfg.Redacted().Notifications.TelegramToken)

	cfg.Notifications.TelegramChatID = ""
	assert.False(t, cfg.Notifications.Enabled())
}

func TestLoad_ExampleFileMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "bot.example.toml"), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}
