package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// PaperGateway trades against memory. Market orders fill at once at the last
// close. Limit orders rest until a fetched close crosses their price, then fill
// at the limit. Prices come from a fixed series or, when a source is set, from
// a real gateway.
type PaperGateway struct {
	mu     sync.Mutex
	source Gateway
	closes []float64
	orders map[string]Order // every order placed, by id
	open   []string         // resting order ids, oldest first
	fills  []Order
	nextID int64
	now    func() time.Time
}

func NewPaperGateway(closes []float64) *PaperGateway {
	return &PaperGateway{
		closes: append([]float64(nil), closes...),
		orders: make(map[string]Order),
		nextID: 1,
		now:    time.Now,
	}
}

// NewPaperGatewayWithSource reads market data from source and simulates orders
func NewPaperGatewayWithSource(source Gateway) *PaperGateway {
	p := NewPaperGateway(nil)
	p.source = source
	return p
}

func (p *PaperGateway) GetName() string {
	if p.source != nil {
		return "Paper (" + p.source.GetName() + " prices)"
	}
	return "Paper"
}

// FetchClosingPrices serves the closes and fills resting orders crossed by the latest one
func (p *PaperGateway) FetchClosingPrices(ctx context.Context, symbol, interval string, start, end time.Time) ([]float64, error) {
	if p.source != nil {
		closes, err := p.source.FetchClosingPrices(ctx, symbol, interval, start, end)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(closes) > 0 {
			p.closes = append([]float64(nil), closes...)
			p.matchOpenOrders(symbol, closes[len(closes)-1])
		}
		return closes, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, &GatewayError{Exchange: p.GetName(), Op: "klines", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.closes) > 0 {
		p.matchOpenOrders(symbol, p.closes[len(p.closes)-1])
	}
	return append([]float64(nil), p.closes...), nil
}

// matchOpenOrders fills buys limited at or above price and sells at or below it
func (p *PaperGateway) matchOpenOrders(symbol string, price float64) {
	remaining := p.open[:0]
	for _, id := range p.open {
		order := p.orders[id]
		crossed := (order.Side == OrderSideBuy && price <= order.Price) ||
			(order.Side == OrderSideSell && price >= order.Price)
		if order.Symbol != symbol || !crossed {
			remaining = append(remaining, id)
			continue
		}
		p.fill(order, order.Price)
	}
	p.open = remaining
}

func (p *PaperGateway) fill(order Order, price float64) Order {
	order.Status = OrderStatusFilled
	order.Price = price
	order.ExecutedQty = order.Quantity
	order.UpdatedAt = p.now()
	p.orders[order.OrderID] = order
	p.fills = append(p.fills, order)
	return order
}

func (p *PaperGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = OrderTypeMarket
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Type == OrderTypeMarket && len(p.closes) == 0 {
		return nil, &GatewayError{Exchange: p.GetName(), Op: "place order", Message: "no price to fill market order"}
	}

	order := Order{
		OrderID:       strconv.FormatInt(p.nextID, 10),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Status:        OrderStatusNew,
		Price:         req.Price,
		Quantity:      req.Quantity,
		UpdatedAt:     p.now(),
	}
	p.nextID++

	if req.Type == OrderTypeMarket {
		order = p.fill(order, p.closes[len(p.closes)-1])
	} else {
		p.orders[order.OrderID] = order
		p.open = append(p.open, order.OrderID)
	}

	return &OrderAck{
		OrderID:       order.OrderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Status:        order.Status,
	}, nil
}

func (p *PaperGateway) CancelOrder(ctx context.Context, symbol, orderID string) (*OrderAck, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.openIndex(orderID)
	if idx < 0 || p.orders[orderID].Symbol != symbol {
		return nil, &GatewayError{
			Exchange: p.GetName(),
			Op:       "cancel order",
			Status:   400,
			Code:     -2011,
			Message:  fmt.Sprintf("unknown order %s", orderID),
		}
	}
	p.open = append(p.open[:idx], p.open[idx+1:]...)

	order := p.orders[orderID]
	order.Status = OrderStatusCanceled
	order.UpdatedAt = p.now()
	p.orders[orderID] = order

	return &OrderAck{
		OrderID:       order.OrderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Status:        order.Status,
	}, nil
}

func (p *PaperGateway) ListOpenOrders(ctx context.Context, symbol string) ([]Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	orders := make([]Order, 0, len(p.open))
	for _, id := range p.open {
		order := p.orders[id]
		if symbol == "" || order.Symbol == symbol {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (p *PaperGateway) GetOrder(ctx context.Context, symbol, orderID string) (*Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || order.Symbol != symbol {
		return nil, &GatewayError{
			Exchange: p.GetName(),
			Op:       "query order",
			Status:   400,
			Code:     -2013,
			Message:  "Order does not exist.",
		}
	}
	return &order, nil
}

func (p *PaperGateway) openIndex(orderID string) int {
	for i, id := range p.open {
		if id == orderID {
			return i
		}
	}
	return -1
}

// Fills returns the filled orders in fill order
func (p *PaperGateway) Fills() []Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Order(nil), p.fills...)
}
