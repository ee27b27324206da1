package exchange

import (
	"fmt"
	"strings"
	"time"
)

// Config selects and configures a gateway
type Config struct {
	Name      string // binance, bybit or paper
	APIKey    string
	APISecret string
	Testnet   bool
	BaseURL   string
	Category  string
	Timeout   time.Duration

	WeightPerMinute int
}

// SupportedGateways lists the names accepted by NewGateway
var SupportedGateways = []string{"binance", "bybit", "paper"}

var gatewayAliases = map[string]string{
	"binance-futures": "binance",
}

// canonicalName lowercases name and resolves aliases
func canonicalName(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := gatewayAliases[name]; ok {
		return canonical
	}
	return name
}

// NewGateway creates the gateway named in cfg
func NewGateway(cfg Config) (Gateway, error) {
	switch canonicalName(cfg.Name) {
	case "binance":
		return NewBinanceFuturesGateway(BinanceConfig{
			APIKey:          cfg.APIKey,
			APISecret:       cfg.APISecret,
			Testnet:         cfg.Testnet,
			BaseURL:         cfg.BaseURL,
			Timeout:         cfg.Timeout,
			WeightPerMinute: cfg.WeightPerMinute,
		}), nil
	case "bybit":
		return NewBybitGateway(BybitConfig{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Testnet:   cfg.Testnet,
			BaseURL:   cfg.BaseURL,
			Category:  cfg.Category,
		}), nil
	case "paper":
		return NewPaperGateway(nil), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q (supported: %s)", cfg.Name, strings.Join(SupportedGateways, ", "))
	}
}

// IsSupported reports whether NewGateway accepts name
func IsSupported(name string) bool {
	name = canonicalName(name)
	for _, s := range SupportedGateways {
		if s == name {
			return true
		}
	}
	return false
}
