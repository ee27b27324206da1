package strategy

import (
	"time"
)

// Strategy defines the interface for trading strategies
type Strategy interface {
	// Decide evaluates the price series against the current position and
	// returns the action to take at price
	Decide(series []float64, price float64, position PositionState) (*TradeDecision, error)

	// GetName returns the name of the strategy
	GetName() string
}

// TradeDecision represents a trading decision made by a strategy
type TradeDecision struct {
	Action    TradeAction
	Price     float64
	Indicator float64
	Reason    string
	Timestamp time.Time
}

// TradeAction represents the type of trading action
type TradeAction int

const (
	ActionHold TradeAction = iota
	ActionBuy
	ActionSell
)

func (ta TradeAction) String() string {
	switch ta {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}
