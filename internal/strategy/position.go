package strategy

import "fmt"

// PositionState is either Flat or Holding an entry price.
// A session owns exactly one PositionState and mutates it only through decisions.
type PositionState struct {
	holding    bool
	entryPrice float64
}

// Flat returns the state with no holding
func Flat() PositionState {
	return PositionState{}
}

// Holding returns the state holding a position opened at entryPrice
func Holding(entryPrice float64) PositionState {
	return PositionState{holding: true, entryPrice: entryPrice}
}

func (p PositionState) IsFlat() bool {
	return !p.holding
}

func (p PositionState) IsHolding() bool {
	return p.holding
}

// EntryPrice returns the entry price, or 0 when flat
func (p PositionState) EntryPrice() float64 {
	return p.entryPrice
}

func (p PositionState) String() string {
	if p.holding {
		return fmt.Sprintf("HOLDING@%.8g", p.entryPrice)
	}
	return "FLAT"
}
