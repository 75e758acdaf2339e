package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHLBookStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer func() {
			err := conn.Close()
			if err != nil {
				t.Log(err)
			}
		}()

		var sub struct {
			Method       string `json:"method"`
			Subscription struct {
				Type string `json:"type"`
				Coin string `json:"coin"`
			} `json:"subscription"`
		}
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Method)
		assert.Equal(t, "l2Book", sub.Subscription.Type)
		assert.Equal(t, "ETH", sub.Subscription.Coin)

		// служебное сообщение другого канала должно игнорироваться
		require.NoError(t, conn.WriteJSON(map[string]any{"channel": "subscriptionResponse"}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"channel": "l2Book",
			"data": map[string]any{
				"coin": "ETH",
				"time": 1700000000000,
				"levels": [][]map[string]string{
					{{"px": "100", "sz": "1"}},
					{{"px": "100.1", "sz": "1"}},
				},
			},
		}))
		// держим соединение до закрытия клиентом
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	conf := HLConfig{WSEndpoint: "ws" + strings.TrimPrefix(server.URL, "http")}
	stream, err := NewHLBookStream(context.Background(), conf, "ETH", zap.NewNop().Sugar())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- stream.Listen()
	}()

	select {
	case ob := <-stream.Books():
		assert.Equal(t, "ETH", ob.Instrument)
		bid, ok := ob.BestBid()
		require.True(t, ok)
		assert.Equal(t, 100.0, bid)
		ask, ok := ob.BestAsk()
		require.True(t, ok)
		assert.Equal(t, 100.1, ask)
	case <-time.After(2 * time.Second):
		t.Fatal("no book from stream")
	}

	stream.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}
