package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDYDX(t *testing.T, handler http.HandlerFunc) *DYDXClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	conf := DYDXConfig{
		Endpoint:   server.URL,
		ApiKey:     "key",
		ApiSecret:  "secret",
		Passphrase: "phrase",
	}
	return NewDYDXClient(conf, zap.NewNop().Sugar())
}

func TestDYDXOrderBook(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orderbooks/perpetualMarket/ETH-USD", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("DYDX-API-KEY"))
		_, err := w.Write([]byte(`{
			"bids": [{"price": "100", "size": "1"}, {"price": "99.9", "size": "2"}],
			"asks": [{"price": "100.1", "size": "1"}]
		}`))
		assert.NoError(t, err)
	})

	ob, err := client.OrderBook(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, "ETH", ob.Instrument)
	require.Len(t, ob.Bids, 2)
	require.Len(t, ob.Asks, 1)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	assert.Equal(t, 100.0, bid)
	ask, ok := ob.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 100.1, ask)
}

func TestDYDXOrderBookBadLevel(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write([]byte(`{"bids": [{"price": "abc", "size": "1"}], "asks": []}`))
		assert.NoError(t, err)
	})

	_, err := client.OrderBook(context.Background(), "ETH")
	var snapErr *SnapshotError
	require.ErrorAs(t, err, &snapErr)
	assert.Equal(t, "dydx", snapErr.Venue)
}

func TestDYDXPlaceOrder(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ETH-USD", body["market"])
		assert.Equal(t, "BUY", body["side"])
		assert.Equal(t, "LIMIT", body["type"])
		assert.Equal(t, "100.05", body["price"])
		assert.NotEmpty(t, body["clientId"])

		_, err := w.Write([]byte(`{"order": {
			"id": "abc-1", "side": "BUY", "type": "LIMIT",
			"size": "0.1", "totalFilled": "0", "price": "100.05", "status": "OPEN"
		}}`))
		assert.NoError(t, err)
	})

	rec, err := client.PlaceOrder(context.Background(), "ETH", BUY, LIMIT, 0.1, 100.05)
	require.NoError(t, err)
	assert.Equal(t, "abc-1", rec.ID)
	assert.Equal(t, "ETH", rec.Instrument)
	assert.Equal(t, OPEN, rec.Status)
	assert.Equal(t, 0.1, rec.RequestedSize)
	assert.Equal(t, 100.05, rec.Price)
	assert.Equal(t, "dydx", rec.Venue)
}

func TestDYDXPlaceOrderRejected(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, err := w.Write([]byte(`{"errors": [{"msg": "size below minimum"}]}`))
		assert.NoError(t, err)
	})

	_, err := client.PlaceOrder(context.Background(), "ETH", BUY, LIMIT, 0.0001, 100)
	var rejErr *OrderRejectedError
	require.ErrorAs(t, err, &rejErr)
	assert.Equal(t, "dydx", rejErr.Venue)
}

func TestDYDXCancelOrder(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/abc-1", r.URL.Path)
		_, err := w.Write([]byte(`{"canceled": true, "status": "CANCELED"}`))
		assert.NoError(t, err)
	})

	canceled, err := client.CancelOrder(context.Background(), "abc-1")
	require.NoError(t, err)
	assert.True(t, canceled)
}

func TestDYDXCancelOrderAlreadyFilled(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, _ *http.Request) {
		_, err := w.Write([]byte(`{"canceled": false, "status": "FILLED"}`))
		assert.NoError(t, err)
	})

	_, err := client.CancelOrder(context.Background(), "abc-1")
	assert.ErrorIs(t, err, ErrOrderFilled)
}

func TestDYDXOrderStatus(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/abc-1", r.URL.Path)
		_, err := w.Write([]byte(`{"order": {
			"id": "abc-1", "side": "BUY", "type": "LIMIT",
			"size": "0.1", "totalFilled": "0.04", "price": "100.05", "status": "PARTIALLY_FILLED"
		}}`))
		assert.NoError(t, err)
	})

	rec, err := client.OrderStatus(context.Background(), "abc-1")
	require.NoError(t, err)
	assert.Equal(t, PARTIALLY_FILLED, rec.Status)
	assert.Equal(t, 0.04, rec.FilledSize)
	assert.True(t, rec.Status.Resting())
}

func TestDYDXMarkets(t *testing.T) {
	client := newTestDYDX(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/perpetualMarkets", r.URL.Path)
		_, err := w.Write([]byte(`{"markets": {
			"ETH-USD": {"ticker": "ETH-USD", "tickSize": "0.1", "stepSize": "0.001"},
			"BTC-USD": {"ticker": "BTC-USD", "tickSize": "1", "stepSize": "0.0001"}
		}}`))
		assert.NoError(t, err)
	})

	markets, err := client.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, 0.1, markets["ETH-USD"].PriceStep())
	assert.Equal(t, 1.0, markets["BTC-USD"].PriceStep())
}
