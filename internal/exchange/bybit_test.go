package exchange

import (
	"errors"
	"testing"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBybitInterval(t *testing.T) {
	tests := map[string]string{
		"1m":  "1",
		"15m": "15",
		"1h":  "60",
		"4h":  "240",
		"1d":  "D",
		"60":  "60",
	}
	for in, want := range tests {
		got, err := BybitInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := BybitInterval("7m")
	assert.Error(t, err)
}

func TestBybitGateway_Decode(t *testing.T) {
	gw := NewBybitGateway(BybitConfig{Testnet: true})
	assert.Equal(t, "Bybit (testnet)", gw.GetName())

	var out struct {
		OrderID string `json:"orderId"`
	}
	ok := &bybit_api.ServerResponse{Result: map[string]interface{}{"orderId": "abc"}}
	require.NoError(t, gw.decode("place order", ok, &out))
	assert.Equal(t, "abc", out.OrderID)

	rejected := &bybit_api.ServerResponse{RetCode: bybitCodeInvalidAPIKey, RetMsg: "API key is invalid."}
	err := gw.decode("place order", rejected, &out)
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, bybitCodeInvalidAPIKey, gwErr.Code)
	assert.Equal(t, 401, gwErr.HTTPStatus())

	assert.Error(t, gw.decode("klines", "not a response", &out))
}

func TestBybitGateway_DecodeOrders(t *testing.T) {
	gw := NewBybitGateway(BybitConfig{Testnet: true})

	resp := &bybit_api.ServerResponse{Result: map[string]interface{}{
		"list": []interface{}{
			map[string]interface{}{
				"orderId": "o1", "orderLinkId": "c1", "symbol": "BTCUSDT", "side": "Buy",
				"orderType": "Limit", "orderStatus": "Filled", "price": "100.5",
				"qty": "0.5", "cumExecQty": "0.5", "updatedTime": "1700000000000",
			},
			map[string]interface{}{
				"orderId": "o2", "symbol": "BTCUSDT", "side": "Sell", "orderType": "Limit",
				"orderStatus": "PartiallyFilledCanceled", "qty": "0.5", "cumExecQty": "0.1",
			},
		},
	}}

	orders, err := gw.decodeOrders("query order", resp)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, OrderSideBuy, orders[0].Side)
	assert.Equal(t, OrderTypeLimit, orders[0].Type)
	assert.True(t, orders[0].IsFilled())
	assert.Equal(t, 100.5, orders[0].Price)

	assert.Equal(t, OrderStatusCanceled, orders[1].Status)
	assert.True(t, orders[1].IsClosed())
	assert.False(t, orders[1].IsFilled())
	assert.Equal(t, 0.1, orders[1].ExecutedQty)
}

func TestBybitOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusNew, bybitOrderStatus("New"))
	assert.Equal(t, OrderStatusPartiallyFilled, bybitOrderStatus("PartiallyFilled"))
	assert.Equal(t, OrderStatusRejected, bybitOrderStatus("Rejected"))
	assert.Equal(t, OrderStatusCanceled, bybitOrderStatus("Deactivated"))
}
