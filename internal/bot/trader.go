package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	boterrors "github.com/ducminhle1904/dema-futures-bot/internal/errors"
	"github.com/ducminhle1904/dema-futures-bot/internal/exchange"
	"github.com/ducminhle1904/dema-futures-bot/internal/indicators"
	"github.com/ducminhle1904/dema-futures-bot/internal/logger"
	"github.com/ducminhle1904/dema-futures-bot/internal/monitoring"
	"github.com/ducminhle1904/dema-futures-bot/internal/notifications"
	"github.com/ducminhle1904/dema-futures-bot/internal/strategy"
	"github.com/ducminhle1904/dema-futures-bot/pkg/types"
)

// Config holds the parameters of one trading session
type Config struct {
	Symbol          string
	Interval        string
	Window          int
	Threshold       float64
	ProfitThreshold float64
	Quantity        float64
	OrderType       exchange.OrderType
	SleepInterval   time.Duration
	Lookback        time.Duration
	RequestTimeout  time.Duration
	// PendingOrderCycles cancels an order still open after this many cycles
	// and reverts the position. 0 treats every acknowledged order as filled.
	PendingOrderCycles int
}

// CycleResult describes what one cycle saw and did
type CycleResult struct {
	Price    float64
	DEMA     float64
	Action   strategy.TradeAction
	Reason   string
	OrderID  string
	Position strategy.PositionState
}

type pendingOrder struct {
	orderID  string
	side     exchange.OrderSide
	previous strategy.PositionState
	cycles   int
}

// Trader runs the polling loop for one symbol. It owns its position state
// and must not be shared between goroutines.
type Trader struct {
	cfg      Config
	gateway  exchange.Gateway
	strategy strategy.Strategy
	logger   *logger.Logger
	health   *monitoring.HealthChecker
	notifier notifications.Notifier
	errStats *boterrors.ErrorStats
	out      io.Writer

	position strategy.PositionState
	pending  *pendingOrder
	cycles   int

	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
	newOrderID func() string
}

// NewTrader creates a flat trader using the take-profit DEMA strategy
func NewTrader(cfg Config, gateway exchange.Gateway, log *logger.Logger) (*Trader, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if cfg.Window < 1 {
		return nil, fmt.Errorf("window must be at least 1, got %d", cfg.Window)
	}
	if cfg.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %g", cfg.Quantity)
	}
	if cfg.OrderType == "" {
		cfg.OrderType = exchange.OrderTypeMarket
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Trader{
		cfg:        cfg,
		gateway:    gateway,
		strategy:   strategy.NewTakeProfitStrategy(cfg.Window, cfg.Threshold, cfg.ProfitThreshold),
		logger:     log,
		notifier:   notifications.Nop{},
		errStats:   boterrors.NewErrorStats(20),
		out:        os.Stdout,
		position:   strategy.Flat(),
		now:        time.Now,
		sleep:      sleepContext,
		newOrderID: func() string { return uuid.NewString() },
	}, nil
}

// SetHealthChecker reports cycle outcomes to h
func (t *Trader) SetHealthChecker(h *monitoring.HealthChecker) {
	t.health = h
}

// SetNotifier sends trade, cancel and stop alerts to n
func (t *Trader) SetNotifier(n notifications.Notifier) {
	if n == nil {
		n = notifications.Nop{}
	}
	t.notifier = n
}

// SetOutput redirects the console output, os.Stdout by default
func (t *Trader) SetOutput(w io.Writer) {
	t.out = w
}

// Position returns the current position state
func (t *Trader) Position() strategy.PositionState {
	return t.position
}

// ErrorStats returns the errors seen so far
func (t *Trader) ErrorStats() *boterrors.ErrorStats {
	return t.errStats
}

// Run executes cycles until ctx is done or an error stops the bot.
// Cycle failures are logged and the cycle is skipped; only fatal
// categories (credentials, configuration) end the loop with an error.
func (t *Trader) Run(ctx context.Context) error {
	t.printStartupInfo()
	t.logger.Info("Starting %s on %s (%s %s)", t.strategy.GetName(), t.gateway.GetName(), t.cfg.Symbol, t.cfg.Interval)

	for {
		if ctx.Err() != nil {
			t.logger.Info("Stop signal received - ending trading loop after %d cycles", t.cycles)
			return nil
		}

		started := t.now()
		_, err := t.RunCycle(ctx)
		wait := t.cfg.SleepInterval

		switch {
		case err == nil:
			monitoring.RecordCycle(t.cfg.Symbol, monitoring.OutcomeOK, t.now().Sub(started))
		case ctx.Err() != nil:
			t.logger.Info("Stop signal received during cycle - ending trading loop")
			return nil
		default:
			botErr := boterrors.CategorizeError(err, "trader", "cycle")
			t.errStats.RecordError(botErr)
			monitoring.RecordError(string(botErr.Category))
			if t.health != nil {
				t.health.RecordError(botErr.Error(), !isTransportFailure(err))
			}

			switch botErr.GetRecoveryAction() {
			case boterrors.RecoveryActionStop:
				monitoring.RecordCycle(t.cfg.Symbol, monitoring.OutcomeFailed, t.now().Sub(started))
				t.logger.LogError("Fatal error, stopping", botErr)
				t.notify(ctx, notifications.LevelError, fmt.Sprintf("%s stopped: %v", t.cfg.Symbol, botErr))
				return botErr
			case boterrors.RecoveryActionWait:
				wait *= 2
				t.logger.LogWarning("Cycle skipped", "%v (backing off %s)", botErr, wait)
			default:
				t.logger.LogWarning("Cycle skipped", "%v", botErr)
			}
			monitoring.RecordCycle(t.cfg.Symbol, monitoring.OutcomeSkipped, t.now().Sub(started))
		}

		if err := t.sleep(ctx, wait); err != nil {
			t.logger.Info("Stop signal received - ending trading loop after %d cycles", t.cycles)
			return nil
		}
	}
}

// RunCycle fetches the look-back window, settles a pending order, evaluates
// the strategy and places at most one order. The position only changes once
// the exchange has acknowledged the order.
func (t *Trader) RunCycle(ctx context.Context) (*CycleResult, error) {
	t.cycles++

	end := t.now()
	start := end.Add(-t.cfg.Lookback)

	fetchCtx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	closes, err := t.gateway.FetchClosingPrices(fetchCtx, t.cfg.Symbol, t.cfg.Interval, start, end)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch closing prices: %w", err)
	}
	if len(closes) == 0 {
		return nil, &indicators.InsufficientDataError{Length: 0, Window: t.cfg.Window}
	}

	price := types.Last(closes)

	if t.pending != nil {
		stillPending, err := t.checkPendingOrder(ctx)
		if err != nil {
			return nil, err
		}
		if stillPending {
			t.recordCycle(price)
			return &CycleResult{
				Price:    price,
				Action:   strategy.ActionHold,
				Reason:   fmt.Sprintf("order %s pending", t.pending.orderID),
				Position: t.position,
			}, nil
		}
	}

	decision, err := t.strategy.Decide(closes, price, t.position)
	if err != nil {
		return nil, err
	}

	monitoring.UpdateMarket(t.cfg.Symbol, price, decision.Indicator)
	t.logger.LogMarketStatus(price, decision.Indicator, t.position.String(), decision.Action.String())

	result := &CycleResult{
		Price:  price,
		DEMA:   decision.Indicator,
		Action: decision.Action,
		Reason: decision.Reason,
	}

	switch decision.Action {
	case strategy.ActionBuy:
		result.OrderID, err = t.execute(ctx, exchange.OrderSideBuy, price, decision.Reason, strategy.Holding(price))
	case strategy.ActionSell:
		result.OrderID, err = t.execute(ctx, exchange.OrderSideSell, price, decision.Reason, strategy.Flat())
	}
	if err != nil {
		return nil, err
	}

	result.Position = t.position
	t.recordCycle(price)
	return result, nil
}

// recordCycle publishes a completed cycle to metrics and the health checker
func (t *Trader) recordCycle(price float64) {
	monitoring.UpdatePosition(t.cfg.Symbol, t.position.IsHolding())
	if t.health != nil {
		t.health.RecordCycle(price, t.position.String())
	}
}

// execute places the order for side and moves to next once acknowledged
func (t *Trader) execute(ctx context.Context, side exchange.OrderSide, price float64, reason string, next strategy.PositionState) (string, error) {
	req := exchange.OrderRequest{
		Symbol:        t.cfg.Symbol,
		Side:          side,
		Type:          t.cfg.OrderType,
		Quantity:      t.cfg.Quantity,
		ClientOrderID: t.newOrderID(),
	}
	if req.Type == exchange.OrderTypeLimit {
		req.Price = price
		req.TimeInForce = exchange.TimeInForceGTC
	}

	orderCtx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	defer cancel()

	ack, err := t.gateway.PlaceOrder(orderCtx, req)
	if err != nil {
		return "", fmt.Errorf("place %s order: %w", side, err)
	}

	previous := t.position
	t.position = next

	if t.cfg.PendingOrderCycles > 0 && ack.Status != exchange.OrderStatusFilled {
		t.pending = &pendingOrder{orderID: ack.OrderID, side: side, previous: previous}
	}

	monitoring.RecordOrder(t.cfg.Symbol, string(side))
	if t.health != nil {
		t.health.RecordTrade()
	}
	t.logger.LogTradeExecution(string(side), ack.OrderID, req.Quantity, price, reason)
	fmt.Fprintf(t.out, "%s %s %g %s @ %.8g (order %s)\n", t.now().Format("15:04:05"), side, req.Quantity, t.cfg.Symbol, price, ack.OrderID)
	t.notify(ctx, notifications.LevelSuccess, fmt.Sprintf("%s %g %s @ %.8g\n%s", side, req.Quantity, t.cfg.Symbol, price, reason))

	return ack.OrderID, nil
}

// checkPendingOrder reports whether the last order is still waiting. An order
// that left the book is looked up: a fill settles it, any other final state
// reverts the position. An order open for PendingOrderCycles cycles is
// cancelled and the position reverted.
func (t *Trader) checkPendingOrder(ctx context.Context) (bool, error) {
	listCtx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	open, err := t.gateway.ListOpenOrders(listCtx, t.cfg.Symbol)
	cancel()
	if err != nil {
		return false, fmt.Errorf("list open orders: %w", err)
	}

	p := t.pending
	if !containsOrder(open, p.orderID) {
		queryCtx, cancel := context.WithTimeout(ctx, t.cfg.RequestTimeout)
		order, err := t.gateway.GetOrder(queryCtx, t.cfg.Symbol, p.orderID)
		cancel()
		if err != nil {
			return false, fmt.Errorf("query order %s: %w", p.orderID, err)
		}

		switch {
		case order.IsFilled():
			t.logger.Trade("Order %s filled: %g %s @ %.8g", p.orderID, order.ExecutedQty, t.cfg.Symbol, order.Price)
			t.pending = nil
			return false, nil
		case order.IsClosed():
			if order.ExecutedQty > 0 {
				t.logger.LogWarning("Partial fill", "order %s executed %g of %g before it was %s", p.orderID, order.ExecutedQty, order.Quantity, order.Status)
			}
			t.revertPending(ctx, strings.ToLower(order.Status)+" without filling")
			return false, nil
		}
		// not listed yet but still live, count the cycle
	}

	p.cycles++
	if p.cycles < t.cfg.PendingOrderCycles {
		return true, nil
	}

	cancelCtx, cancelFn := context.WithTimeout(ctx, t.cfg.RequestTimeout)
	_, err = t.gateway.CancelOrder(cancelCtx, t.cfg.Symbol, p.orderID)
	cancelFn()
	if err != nil {
		return false, fmt.Errorf("cancel order %s: %w", p.orderID, err)
	}

	t.revertPending(ctx, fmt.Sprintf("cancelled after %d cycles", p.cycles))
	return false, nil
}

// revertPending restores the position held before the pending order
func (t *Trader) revertPending(ctx context.Context, reason string) {
	p := t.pending
	t.position = p.previous
	t.pending = nil

	monitoring.RecordOrderCancel(t.cfg.Symbol)
	monitoring.UpdatePosition(t.cfg.Symbol, t.position.IsHolding())
	t.logger.LogOrderReverted(p.orderID, reason, t.position.String())
	t.notify(ctx, notifications.LevelWarning, fmt.Sprintf("%s order %s %s, back to %s", p.side, p.orderID, reason, t.position))
}

// notify delivers an alert without letting a notification failure affect trading
func (t *Trader) notify(ctx context.Context, level, message string) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.cfg.RequestTimeout)
	defer cancel()
	if err := t.notifier.SendAlert(notifyCtx, level, message); err != nil {
		t.logger.LogWarning("Notification failed", "%v", err)
	}
}

func containsOrder(orders []exchange.Order, orderID string) bool {
	for _, o := range orders {
		if o.OrderID == orderID {
			return true
		}
	}
	return false
}

// isTransportFailure reports whether the request never reached the exchange
func isTransportFailure(err error) bool {
	var gwErr *exchange.GatewayError
	return errors.As(err, &gwErr) && gwErr.Status == 0 && gwErr.Code == 0 && gwErr.Err != nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
