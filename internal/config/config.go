package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
)

// Config is the complete configuration of the bot and the backtest tool
type Config struct {
	Exchange      ExchangeConfig      `toml:"exchange"`
	Strategy      StrategyConfig      `toml:"strategy"`
	Trading       TradingConfig       `toml:"trading"`
	Backtest      BacktestConfig      `toml:"backtest"`
	Monitoring    MonitoringConfig    `toml:"monitoring"`
	Logging       LoggingConfig       `toml:"logging"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type ExchangeConfig struct {
	Name            string   `toml:"name"` // binance, bybit or paper
	APIKey          string   `toml:"api_key"`
	APISecret       string   `toml:"api_secret"`
	Testnet         bool     `toml:"testnet"`
	BaseURL         string   `toml:"base_url"`
	Category        string   `toml:"category"` // bybit only
	RequestTimeout  Duration `toml:"request_timeout"`
	WeightPerMinute int      `toml:"weight_per_minute"` // binance only
}

// StrategyConfig holds the DEMA signal parameters
type StrategyConfig struct {
	Symbol          string  `toml:"symbol"`
	Interval        string  `toml:"interval"`
	Window          int     `toml:"window"`
	Threshold       float64 `toml:"threshold"`
	ProfitThreshold float64 `toml:"profit_threshold"` // 2 means sell above entry*3
}

// TradingConfig holds the live loop parameters
type TradingConfig struct {
	Quantity           float64  `toml:"quantity"`
	OrderType          string   `toml:"order_type"` // MARKET or LIMIT
	SleepInterval      Duration `toml:"sleep_interval"`
	Lookback           Duration `toml:"lookback"`
	PendingOrderCycles int      `toml:"pending_order_cycles"` // 0 assumes orders fill
	DryRun             bool     `toml:"dry_run"`
}

// BacktestConfig holds the offline simulation and grid search parameters
type BacktestConfig struct {
	DataFile       string  `toml:"data_file"`
	InitialBalance float64 `toml:"initial_balance"`
	WindowFrom     int     `toml:"window_from"`
	WindowTo       int     `toml:"window_to"` // exclusive
	ThresholdStep  float64 `toml:"threshold_step"`
	ThresholdSteps int     `toml:"threshold_steps"`
	Workers        int     `toml:"workers"`
	ExportPath     string  `toml:"export_path"`
}

type MonitoringConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// NotificationsConfig enables Telegram alerts when both fields are set
type NotificationsConfig struct {
	TelegramToken  string `toml:"telegram_token"`
	TelegramChatID string `toml:"telegram_chat_id"`
}

func (n NotificationsConfig) Enabled() bool {
	return n.TelegramToken != "" && n.TelegramChatID != ""
}

type LoggingConfig struct {
	Dir    string `toml:"dir"`
	Stdout bool   `toml:"stdout"`
}

// Duration wraps time.Duration so TOML strings like "6s" decode
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults mirrors the parameters the bot has always shipped with
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			Name:            "binance",
			Testnet:         true,
			Category:        "linear",
			RequestTimeout:  Duration{10 * time.Second},
			WeightPerMinute: exchange.BinanceRequestWeightPerMinute,
		},
		Strategy: StrategyConfig{
			Symbol:          "BTCUSDT",
			Interval:        "1m",
			Window:          6,
			Threshold:       0.01,
			ProfitThreshold: 2,
		},
		Trading: TradingConfig{
			Quantity:      0.5,
			OrderType:     string(exchange.OrderTypeMarket),
			SleepInterval: Duration{6 * time.Second},
			Lookback:      Duration{60 * time.Minute},
		},
		Backtest: BacktestConfig{
			InitialBalance: 100,
			WindowFrom:     2,
			WindowTo:       12,
			ThresholdStep:  0.01,
			ThresholdSteps: 4,
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Port:    8080,
		},
		Logging: LoggingConfig{
			Dir:    "logs",
			Stdout: true,
		},
	}
}

// Validate checks the configuration for values the bot cannot run with
func (c *Config) Validate() error {
	var problems []string

	if !exchange.IsSupported(c.Exchange.Name) {
		problems = append(problems, fmt.Sprintf("exchange.name %q is not supported", c.Exchange.Name))
	}
	if c.RequiresCredentials() && (c.Exchange.APIKey == "" || c.Exchange.APISecret == "") {
		problems = append(problems, "exchange.api_key and exchange.api_secret are required for live trading")
	}
	if c.Exchange.RequestTimeout.Duration <= 0 {
		problems = append(problems, "exchange.request_timeout must be positive")
	}
	if c.Exchange.WeightPerMinute < 0 {
		problems = append(problems, "exchange.weight_per_minute must not be negative")
	}

	if c.Strategy.Symbol == "" {
		problems = append(problems, "strategy.symbol is required")
	}
	if c.Strategy.Interval == "" {
		problems = append(problems, "strategy.interval is required")
	}
	if c.Strategy.Window < 1 {
		problems = append(problems, "strategy.window must be at least 1")
	}
	if c.Strategy.Threshold < 0 {
		problems = append(problems, "strategy.threshold must not be negative")
	}
	if c.Strategy.ProfitThreshold < 0 {
		problems = append(problems, "strategy.profit_threshold must not be negative")
	}

	if c.Trading.Quantity <= 0 {
		problems = append(problems, "trading.quantity must be positive")
	}
	switch exchange.OrderType(strings.ToUpper(c.Trading.OrderType)) {
	case exchange.OrderTypeMarket, exchange.OrderTypeLimit:
	default:
		problems = append(problems, fmt.Sprintf("trading.order_type %q must be MARKET or LIMIT", c.Trading.OrderType))
	}
	if c.Trading.SleepInterval.Duration <= 0 {
		problems = append(problems, "trading.sleep_interval must be positive")
	}
	if c.Trading.Lookback.Duration <= 0 {
		problems = append(problems, "trading.lookback must be positive")
	}
	if c.Trading.PendingOrderCycles < 0 {
		problems = append(problems, "trading.pending_order_cycles must not be negative")
	}

	if c.Backtest.InitialBalance <= 0 {
		problems = append(problems, "backtest.initial_balance must be positive")
	}
	if c.Backtest.WindowFrom < 1 || c.Backtest.WindowTo <= c.Backtest.WindowFrom {
		problems = append(problems, "backtest window range must satisfy 1 <= window_from < window_to")
	}
	if c.Backtest.ThresholdSteps < 1 || c.Backtest.ThresholdStep < 0 {
		problems = append(problems, "backtest threshold grid must have at least one non-negative step")
	}

	if c.Monitoring.Enabled && (c.Monitoring.Port <= 0 || c.Monitoring.Port > 65535) {
		problems = append(problems, fmt.Sprintf("monitoring.port %d is out of range", c.Monitoring.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequiresCredentials reports whether orders go to a real exchange
func (c *Config) RequiresCredentials() bool {
	return !c.Trading.DryRun && strings.ToLower(c.Exchange.Name) != "paper"
}

// GatewayConfig converts the exchange section for exchange.NewGateway
func (c *Config) GatewayConfig() exchange.Config {
	return exchange.Config{
		Name:            c.Exchange.Name,
		APIKey:          c.Exchange.APIKey,
		APISecret:       c.Exchange.APISecret,
		Testnet:         c.Exchange.Testnet,
		BaseURL:         c.Exchange.BaseURL,
		Category:        c.Exchange.Category,
		Timeout:         c.Exchange.RequestTimeout.Duration,
		WeightPerMinute: c.Exchange.WeightPerMinute,
	}
}

// OrderType returns the configured order type in exchange form
func (c *Config) OrderType() exchange.OrderType {
	return exchange.OrderType(strings.ToUpper(c.Trading.OrderType))
}

// Redacted returns a copy safe to print
func (c *Config) Redacted() Config {
	out := *c
	redact(&out.Exchange.APIKey)
	redact(&out.Exchange.APISecret)
	redact(&out.Notifications.TelegramToken)
	return out
}

func redact(s *string) {
	if *s == "" {
		return
	}
	if len(*s) <= 4 {
		*s = "***"
		return
	}
	*s = (*s)[:4] + "***"
}
