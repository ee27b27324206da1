package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	BinanceFuturesMainnet = "https://fapi.binance.com"
	BinanceFuturesTestnet = "https://testnet.binancefuture.com"

	binanceMaxKlines = 1500

	// request weights of the endpoints used here
	weightKlines        = 10
	weightOrder         = 1
	weightQueryOrder    = 1
	weightOpenOrders    = 1
	weightOpenOrdersAll = 40
)

// BinanceConfig holds the credentials and endpoint of a BinanceFuturesGateway
type BinanceConfig struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	BaseURL    string // overrides the testnet/mainnet choice when set
	Timeout    time.Duration
	RecvWindow time.Duration
	// WeightPerMinute caps request weight, BinanceRequestWeightPerMinute when zero
	WeightPerMinute int
}

// BinanceFuturesGateway implements Gateway over the USDⓈ-M futures REST API
type BinanceFuturesGateway struct {
	apiKey     string
	signer     *Signer
	baseURL    string
	recvWindow time.Duration
	client     *http.Client
	limiter    *RateLimiter
	now        func() time.Time
}

// NewBinanceFuturesGateway creates a gateway from an explicit config
func NewBinanceFuturesGateway(cfg BinanceConfig) *BinanceFuturesGateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BinanceFuturesMainnet
		if cfg.Testnet {
			baseURL = BinanceFuturesTestnet
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	weight := cfg.WeightPerMinute
	if weight <= 0 {
		weight = BinanceRequestWeightPerMinute
	}

	return &BinanceFuturesGateway{
		apiKey:     cfg.APIKey,
		signer:     NewSigner(cfg.APISecret),
		baseURL:    baseURL,
		recvWindow: cfg.RecvWindow,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: NewRateLimiter("binance-futures", weight, time.Minute),
		now:     time.Now,
	}
}

func (b *BinanceFuturesGateway) GetName() string {
	return "Binance Futures"
}

// FetchClosingPrices returns the close of every kline opened in [start, end]
func (b *BinanceFuturesGateway) FetchClosingPrices(ctx context.Context, symbol, interval string, start, end time.Time) ([]float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("limit", strconv.Itoa(binanceMaxKlines))

	body, err := b.do(ctx, "klines", http.MethodGet, "/fapi/v1/klines", params, false, weightKlines)
	if err != nil {
		return nil, err
	}

	var klines [][]json.RawMessage
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, b.wrap("klines", 0, fmt.Errorf("decode klines: %w", err))
	}

	closes := make([]float64, 0, len(klines))
	for i, kline := range klines {
		if len(kline) < 5 {
			return nil, b.wrap("klines", 0, fmt.Errorf("kline %d has %d fields", i, len(kline)))
		}
		var raw string
		if err := json.Unmarshal(kline[4], &raw); err != nil {
			return nil, b.wrap("klines", 0, fmt.Errorf("kline %d close: %w", i, err))
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, b.wrap("klines", 0, fmt.Errorf("kline %d close: %w", i, err))
		}
		closes = append(closes, price)
	}

	return closes, nil
}

func (b *BinanceFuturesGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = OrderTypeMarket
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", string(req.Type))
	params.Set("quantity", formatDecimal(req.Quantity))
	if req.Type == OrderTypeLimit {
		tif := req.TimeInForce
		if tif == "" {
			tif = TimeInForceGTC
		}
		params.Set("timeInForce", string(tif))
		params.Set("price", formatDecimal(req.Price))
	}
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}

	body, err := b.do(ctx, "place order", http.MethodPost, "/fapi/v1/order", params, true, weightOrder)
	if err != nil {
		return nil, err
	}

	var order binanceOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, b.wrap("place order", 0, fmt.Errorf("decode order: %w", err))
	}
	return order.ack(), nil
}

func (b *BinanceFuturesGateway) CancelOrder(ctx context.Context, symbol, orderID string) (*OrderAck, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	body, err := b.do(ctx, "cancel order", http.MethodDelete, "/fapi/v1/order", params, true, weightOrder)
	if err != nil {
		return nil, err
	}

	var order binanceOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, b.wrap("cancel order", 0, fmt.Errorf("decode order: %w", err))
	}
	return order.ack(), nil
}

func (b *BinanceFuturesGateway) ListOpenOrders(ctx context.Context, symbol string) ([]Order, error) {
	params := url.Values{}
	weight := weightOpenOrdersAll
	if symbol != "" {
		params.Set("symbol", symbol)
		weight = weightOpenOrders
	}

	body, err := b.do(ctx, "open orders", http.MethodGet, "/fapi/v1/openOrders", params, true, weight)
	if err != nil {
		return nil, err
	}

	var raw []binanceOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, b.wrap("open orders", 0, fmt.Errorf("decode orders: %w", err))
	}

	orders := make([]Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, o.order())
	}
	return orders, nil
}

// GetOrder queries an order by id, open or closed
func (b *BinanceFuturesGateway) GetOrder(ctx context.Context, symbol, orderID string) (*Order, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	body, err := b.do(ctx, "query order", http.MethodGet, "/fapi/v1/order", params, true, weightQueryOrder)
	if err != nil {
		return nil, err
	}

	var raw binanceOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, b.wrap("query order", 0, fmt.Errorf("decode order: %w", err))
	}
	order := raw.order()
	return &order, nil
}

// do waits for weight in the request budget, sends the request and returns
// the body of a 2xx response
func (b *BinanceFuturesGateway) do(ctx context.Context, op, method, path string, params url.Values, signed bool, weight int) ([]byte, error) {
	if err := b.limiter.WaitN(ctx, weight); err != nil {
		return nil, b.wrap(op, 0, err)
	}

	query := params.Encode()
	if signed {
		params.Set("timestamp", strconv.FormatInt(b.now().UnixMilli(), 10))
		if b.recvWindow > 0 {
			params.Set("recvWindow", strconv.FormatInt(b.recvWindow.Milliseconds(), 10))
		}
		query = Canonical(params)
		query += "&signature=" + b.signer.SignPayload(query)
	}

	fullURL := b.baseURL + path
	if query != "" {
		fullURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, b.wrap(op, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if signed || b.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, b.wrap(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, b.wrap(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, b.checkStatus(op, resp.StatusCode, body)
	}
	return body, nil
}

// checkStatus maps a non-2xx response to a GatewayError keeping the exchange code
func (b *BinanceFuturesGateway) checkStatus(op string, status int, body []byte) error {
	var apiErr struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = http.StatusText(status)
	}
	return &GatewayError{
		Exchange: b.GetName(),
		Op:       op,
		Status:   status,
		Code:     apiErr.Code,
		Message:  apiErr.Msg,
	}
}

func (b *BinanceFuturesGateway) wrap(op string, status int, err error) error {
	return &GatewayError{Exchange: b.GetName(), Op: op, Status: status, Err: err}
}

type binanceOrder struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	UpdateTime    int64  `json:"updateTime"`
}

func (o binanceOrder) ack() *OrderAck {
	return &OrderAck{
		OrderID:       strconv.FormatInt(o.OrderID, 10),
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Status:        o.Status,
	}
}

func (o binanceOrder) order() Order {
	return Order{
		OrderID:       strconv.FormatInt(o.OrderID, 10),
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          OrderSide(o.Side),
		Type:          OrderType(o.Type),
		Status:        o.Status,
		Price:         parseDecimal(o.Price),
		Quantity:      parseDecimal(o.OrigQty),
		ExecutedQty:   parseDecimal(o.ExecutedQty),
		UpdatedAt:     time.UnixMilli(o.UpdateTime),
	}
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
