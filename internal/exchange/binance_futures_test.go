package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBinance(t *testing.T, handler http.HandlerFunc) *BinanceFuturesGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw := NewBinanceFuturesGateway(BinanceConfig{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   server.URL,
		Timeout:   2 * time.Second,
	})
	gw.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return gw
}

func TestBinanceFuturesGateway_FetchClosingPrices(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	end := start.Add(time.Hour)

	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1m", q.Get("interval"))
		assert.Equal(t, "1700000000000", q.Get("startTime"))
		assert.Equal(t, "1700003600000", q.Get("endTime"))
		assert.Empty(t, q.Get("signature"))

		w.Write([]byte(`[
			[1700000000000,"100.0","101.0","99.0","100.5","10",1700000059999,"1000",5,"5","500","0"],
			[1700000060000,"100.5","102.0","100.0","101.25","12",1700000119999,"1200",6,"6","600","0"]
		]`))
	})

	closes, err := gw.FetchClosingPrices(context.Background(), "BTCUSDT", "1m", start, end)
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 101.25}, closes)
}

func TestBinanceFuturesGateway_PlaceOrder_Signed(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))

		raw := r.URL.RawQuery
		idx := strings.LastIndex(raw, "&signature=")
		require.Greater(t, idx, 0)
		payload, sig := raw[:idx], raw[idx+len("&signature="):]
		assert.Equal(t, NewSigner("secret").SignPayload(payload), sig)

		q := r.URL.Query()
		assert.Equal(t, "BUY", q.Get("side"))
		assert.Equal(t, "LIMIT", q.Get("type"))
		assert.Equal(t, "GTC", q.Get("timeInForce"))
		assert.Equal(t, "0.5", q.Get("quantity"))
		assert.Equal(t, "101.25", q.Get("price"))
		assert.Equal(t, "abc", q.Get("newClientOrderId"))
		assert.Equal(t, "1700000000000", q.Get("timestamp"))

		w.Write([]byte(`{"orderId":22542179,"clientOrderId":"abc","symbol":"BTCUSDT","status":"NEW","price":"101.25","origQty":"0.5","executedQty":"0","type":"LIMIT","side":"BUY","updateTime":1700000000001}`))
	})

	ack, err := gw.PlaceOrder(context.Background(), OrderRequest{
		Symbol:        "BTCUSDT",
		Side:          OrderSideBuy,
		Type:          OrderTypeLimit,
		Quantity:      0.5,
		Price:         101.25,
		ClientOrderID: "abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "22542179", ack.OrderID)
	assert.Equal(t, "abc", ack.ClientOrderID)
	assert.Equal(t, "NEW", ack.Status)
}

func TestBinanceFuturesGateway_PlaceOrder_MarketOmitsPrice(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "MARKET", q.Get("type"))
		assert.Empty(t, q.Get("price"))
		assert.Empty(t, q.Get("timeInForce"))
		w.Write([]byte(`{"orderId":1,"symbol":"BTCUSDT","status":"FILLED"}`))
	})

	ack, err := gw.PlaceOrder(context.Background(), OrderRequest{Symbol: "BTCUSDT", Side: OrderSideSell, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "FILLED", ack.Status)
}

func TestBinanceFuturesGateway_ExchangeRejection(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-2019,"msg":"Margin is insufficient."}`))
	})

	_, err := gw.PlaceOrder(context.Background(), OrderRequest{Symbol: "BTCUSDT", Side: OrderSideBuy, Quantity: 1})
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, -2019, gwErr.Code)
	assert.Equal(t, "Margin is insufficient.", gwErr.Message)
	assert.False(t, gwErr.Retryable())
}

func TestBinanceFuturesGateway_RateLimited(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := gw.ListOpenOrders(context.Background(), "BTCUSDT")
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusTooManyRequests, gwErr.HTTPStatus())
	assert.True(t, gwErr.Retryable())
}

func TestBinanceFuturesGateway_CancelAndOpenOrders(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/fapi/v1/order":
			assert.Equal(t, "42", r.URL.Query().Get("orderId"))
			w.Write([]byte(`{"orderId":42,"symbol":"BTCUSDT","status":"CANCELED"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/fapi/v1/openOrders":
			w.Write([]byte(`[{"orderId":42,"clientOrderId":"c1","symbol":"BTCUSDT","status":"NEW","side":"SELL","type":"LIMIT","price":"120.5","origQty":"0.5","executedQty":"0.1","updateTime":1700000000000}]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	orders, err := gw.ListOpenOrders(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "42", orders[0].OrderID)
	assert.Equal(t, OrderSideSell, orders[0].Side)
	assert.Equal(t, 120.5, orders[0].Price)
	assert.Equal(t, 0.1, orders[0].ExecutedQty)

	ack, err := gw.CancelOrder(context.Background(), "BTCUSDT", "42")
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", ack.Status)
}

func TestBinanceFuturesGateway_GetOrder(t *testing.T) {
	gw := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/fapi/v1/order", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "42", q.Get("orderId"))
		assert.NotEmpty(t, q.Get("signature"))
		w.Write([]byte(`{"orderId":42,"symbol":"BTCUSDT","status":"EXPIRED","side":"BUY","type":"LIMIT","price":"99","origQty":"0.5","executedQty":"0","updateTime":1700000000000}`))
	})

	order, err := gw.GetOrder(context.Background(), "BTCUSDT", "42")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusExpired, order.Status)
	assert.True(t, order.IsClosed())
	assert.False(t, order.IsFilled())
	assert.Zero(t, order.ExecutedQty)
}

func TestBinanceFuturesGateway_TransportFailure(t *testing.T) {
	gw := NewBinanceFuturesGateway(BinanceConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := gw.FetchClosingPrices(context.Background(), "BTCUSDT", "1m", time.Now().Add(-time.Hour), time.Now())
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Zero(t, gwErr.Status)
	assert.True(t, gwErr.Retryable())
}

func TestOrderRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  OrderRequest
		ok   bool
	}{
		{"market", OrderRequest{Symbol: "BTCUSDT", Side: OrderSideBuy, Quantity: 1}, true},
		{"limit", OrderRequest{Symbol: "BTCUSDT", Side: OrderSideSell, Type: OrderTypeLimit, Quantity: 1, Price: 10}, true},
		{"no symbol", OrderRequest{Side: OrderSideBuy, Quantity: 1}, false},
		{"bad side", OrderRequest{Symbol: "BTCUSDT", Side: "HOLD", Quantity: 1}, false},
		{"zero qty", OrderRequest{Symbol: "BTCUSDT", Side: OrderSideBuy}, false},
		{"limit without price", OrderRequest{Symbol: "BTCUSDT", Side: OrderSideBuy, Type: OrderTypeLimit, Quantity: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsGatewayError(err))
			}
		})
	}
}
