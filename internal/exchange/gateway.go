package exchange

import (
	"context"
	"time"
)

// Gateway is the market access the trader and the backtest downloader depend on
type Gateway interface {
	GetName() string

	// Market data, oldest close first
	FetchClosingPrices(ctx context.Context, symbol, interval string, start, end time.Time) ([]float64, error)

	// Trading
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (*OrderAck, error)
	ListOpenOrders(ctx context.Context, symbol string) ([]Order, error)
	// GetOrder reports an order in any state, including closed ones
	GetOrder(ctx context.Context, symbol, orderID string) (*Order, error)
}

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Order statuses, in Binance notation
const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusRejected        = "REJECTED"
	OrderStatusExpired         = "EXPIRED"
)

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
)

// OrderRequest describes a new order. Price and TimeInForce only apply to limit orders.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	TimeInForce   TimeInForce
	Quantity      float64
	Price         float64
	ClientOrderID string
}

// Validate checks the fields every exchange requires
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return &GatewayError{Op: "order", Message: "symbol is required"}
	}
	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return &GatewayError{Op: "order", Message: "invalid side " + string(r.Side)}
	}
	if r.Quantity <= 0 {
		return &GatewayError{Op: "order", Message: "quantity must be positive"}
	}
	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return &GatewayError{Op: "order", Message: "price is required for limit orders"}
	}
	return nil
}

// Order is an order as reported by the exchange
type Order struct {
	OrderID       string
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Status        string
	Price         float64
	Quantity      float64
	ExecutedQty   float64
	UpdatedAt     time.Time
}

// IsFilled reports whether the whole quantity was executed
func (o Order) IsFilled() bool {
	return o.Status == OrderStatusFilled
}

// IsClosed reports whether the order can no longer fill
func (o Order) IsClosed() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

// OrderAck is the exchange's acknowledgement of a place or cancel request
type OrderAck struct {
	OrderID       string
	ClientOrderID string
	Symbol        string
	Status        string
}
