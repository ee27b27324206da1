package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// Bybit return codes the gateway maps to HTTP-like statuses
const (
	bybitCodeInvalidAPIKey    = 10003
	bybitCodeInvalidSignature = 10004
	bybitCodeRateLimit        = 10006
)

// BybitConfig holds the configuration for the Bybit gateway
type BybitConfig struct {
	APIKey    string
	APISecret string
	Testnet   bool
	BaseURL   string
	Category  string // "linear" for USDT perpetuals
}

// BybitGateway implements Gateway on the Bybit v5 unified API
type BybitGateway struct {
	httpClient *bybit_api.Client
	category   string
	testnet    bool
}

func NewBybitGateway(cfg BybitConfig) *BybitGateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = bybit_api.MAINNET
		if cfg.Testnet {
			baseURL = bybit_api.TESTNET
		}
	}
	category := cfg.Category
	if category == "" {
		category = "linear"
	}

	return &BybitGateway{
		httpClient: bybit_api.NewBybitHttpClient(cfg.APIKey, cfg.APISecret, bybit_api.WithBaseURL(baseURL)),
		category:   category,
		testnet:    cfg.Testnet,
	}
}

func (b *BybitGateway) GetName() string {
	if b.testnet {
		return "Bybit (testnet)"
	}
	return "Bybit"
}

func (b *BybitGateway) FetchClosingPrices(ctx context.Context, symbol, interval string, start, end time.Time) ([]float64, error) {
	bybitInterval, err := BybitInterval(interval)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "klines", Err: err}
	}

	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
		"interval": bybitInterval,
		"start":    start.UnixMilli(),
		"end":      end.UnixMilli(),
		"limit":    1000,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "klines", Err: err}
	}

	var klines struct {
		List [][]string `json:"list"`
	}
	if err := b.decode("klines", result, &klines); err != nil {
		return nil, err
	}

	// Bybit lists the newest candle first
	closes := make([]float64, 0, len(klines.List))
	for i := len(klines.List) - 1; i >= 0; i-- {
		item := klines.List[i]
		if len(item) < 5 {
			continue
		}
		price, err := strconv.ParseFloat(item[4], 64)
		if err != nil {
			return nil, &GatewayError{Exchange: b.GetName(), Op: "klines", Err: fmt.Errorf("close %q: %w", item[4], err)}
		}
		closes = append(closes, price)
	}
	return closes, nil
}

func (b *BybitGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := map[string]interface{}{
		"category":  b.category,
		"symbol":    req.Symbol,
		"side":      bybitSide(req.Side),
		"orderType": "Market",
		"qty":       formatDecimal(req.Quantity),
	}
	if req.Type == OrderTypeLimit {
		tif := req.TimeInForce
		if tif == "" {
			tif = TimeInForceGTC
		}
		params["orderType"] = "Limit"
		params["price"] = formatDecimal(req.Price)
		params["timeInForce"] = string(tif)
	}
	if req.ClientOrderID != "" {
		params["orderLinkId"] = req.ClientOrderID
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).PlaceOrder(ctx)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "place order", Err: err}
	}

	var placed struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := b.decode("place order", result, &placed); err != nil {
		return nil, err
	}

	return &OrderAck{
		OrderID:       placed.OrderID,
		ClientOrderID: placed.OrderLinkID,
		Symbol:        req.Symbol,
		Status:        OrderStatusNew,
	}, nil
}

func (b *BybitGateway) CancelOrder(ctx context.Context, symbol, orderID string) (*OrderAck, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).CancelOrder(ctx)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "cancel order", Err: err}
	}

	var cancelled struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := b.decode("cancel order", result, &cancelled); err != nil {
		return nil, err
	}

	return &OrderAck{
		OrderID:       cancelled.OrderID,
		ClientOrderID: cancelled.OrderLinkID,
		Symbol:        symbol,
		Status:        OrderStatusCanceled,
	}, nil
}

func (b *BybitGateway) ListOpenOrders(ctx context.Context, symbol string) ([]Order, error) {
	params := map[string]interface{}{
		"category": b.category,
	}
	if symbol != "" {
		params["symbol"] = symbol
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetOpenOrders(ctx)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "open orders", Err: err}
	}
	return b.decodeOrders("open orders", result)
}

// GetOrder looks the order up in the order history, then among open orders
func (b *BybitGateway) GetOrder(ctx context.Context, symbol, orderID string) (*Order, error) {
	params := map[string]interface{}{
		"category": b.category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	result, err := b.httpClient.NewUtaBybitServiceWithParams(params).GetOrderHistory(ctx)
	if err != nil {
		return nil, &GatewayError{Exchange: b.GetName(), Op: "query order", Err: err}
	}
	orders, err := b.decodeOrders("query order", result)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		result, err = b.httpClient.NewUtaBybitServiceWithParams(params).GetOpenOrders(ctx)
		if err != nil {
			return nil, &GatewayError{Exchange: b.GetName(), Op: "query order", Err: err}
		}
		if orders, err = b.decodeOrders("query order", result); err != nil {
			return nil, err
		}
	}

	for _, o := range orders {
		if o.OrderID == orderID {
			return &o, nil
		}
	}
	return nil, &GatewayError{Exchange: b.GetName(), Op: "query order", Message: fmt.Sprintf("order %s not found", orderID)}
}

type bybitOrder struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	OrderStatus string `json:"orderStatus"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	CumExecQty  string `json:"cumExecQty"`
	UpdatedTime string `json:"updatedTime"`
}

func (b *BybitGateway) decodeOrders(op string, response interface{}) ([]Order, error) {
	var list struct {
		List []bybitOrder `json:"list"`
	}
	if err := b.decode(op, response, &list); err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(list.List))
	for _, o := range list.List {
		updated, _ := strconv.ParseInt(o.UpdatedTime, 10, 64)
		orders = append(orders, Order{
			OrderID:       o.OrderID,
			ClientOrderID: o.OrderLinkID,
			Symbol:        o.Symbol,
			Side:          OrderSide(strings.ToUpper(o.Side)),
			Type:          OrderType(strings.ToUpper(o.OrderType)),
			Status:        bybitOrderStatus(o.OrderStatus),
			Price:         parseDecimal(o.Price),
			Quantity:      parseDecimal(o.Qty),
			ExecutedQty:   parseDecimal(o.CumExecQty),
			UpdatedAt:     time.UnixMilli(updated),
		})
	}
	return orders, nil
}

// bybitOrderStatus maps Bybit v5 order statuses to the Binance names used by Order
func bybitOrderStatus(status string) string {
	switch status {
	case "New", "Untriggered", "Triggered":
		return OrderStatusNew
	case "PartiallyFilled":
		return OrderStatusPartiallyFilled
	case "Filled":
		return OrderStatusFilled
	case "Cancelled", "PartiallyFilledCanceled", "Deactivated":
		return OrderStatusCanceled
	case "Rejected":
		return OrderStatusRejected
	default:
		return strings.ToUpper(status)
	}
}

// decode checks the return code of a Bybit response and unmarshals its result into out
func (b *BybitGateway) decode(op string, response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok || serverResp == nil {
		return &GatewayError{Exchange: b.GetName(), Op: op, Message: "invalid response type"}
	}

	if serverResp.RetCode != 0 {
		return &GatewayError{
			Exchange: b.GetName(),
			Op:       op,
			Status:   bybitStatus(serverResp.RetCode),
			Code:     serverResp.RetCode,
			Message:  serverResp.RetMsg,
		}
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return &GatewayError{Exchange: b.GetName(), Op: op, Err: fmt.Errorf("marshal result: %w", err)}
	}
	if err := json.Unmarshal(resultBytes, out); err != nil {
		return &GatewayError{Exchange: b.GetName(), Op: op, Err: fmt.Errorf("unmarshal result: %w", err)}
	}
	return nil
}

func bybitStatus(retCode int) int {
	switch retCode {
	case bybitCodeInvalidAPIKey, bybitCodeInvalidSignature:
		return 401
	case bybitCodeRateLimit:
		return 429
	default:
		return 400
	}
}

func bybitSide(side OrderSide) string {
	if side == OrderSideSell {
		return "Sell"
	}
	return "Buy"
}

var bybitIntervals = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

// BybitInterval converts a Binance style interval such as "1m" or "4h" to Bybit's notation
func BybitInterval(interval string) (string, error) {
	if v, ok := bybitIntervals[interval]; ok {
		return v, nil
	}
	for _, v := range bybitIntervals {
		if v == interval {
			return v, nil
		}
	}
	return "", fmt.Errorf("unsupported interval %q", interval)
}
