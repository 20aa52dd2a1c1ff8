package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFeed upgrades one connection, records the subscribe control message
// and replies with a scripted sequence of raw frames.
func fakeFeed(t *testing.T, frames []string, gotSubscribe chan<- subscribeMessage) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeMessage
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := json.Unmarshal(raw, &sub); err == nil {
			gotSubscribe <- sub
		}

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func feedConfig(url string) models.MFeedConfig {
	return models.MFeedConfig{
		URL:                       url,
		Symbol:                    "btcusd_perp",
		TriggerDigit:              "5",
		ReconnectBaseDelaySeconds: 1,
		ReconnectMaxDelaySeconds:  1,
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_SubscribeAndTicks(t *testing.T) {
	frames := []string{
		`{"e":"markPriceUpdate","p":"100.00"}`,
		`{"e":"markPriceUpdate","p":"not-a-number"}`, // dropped
		`{"broken json`,                              // dropped
		`{"e":"markPriceUpdate","p":"105.50"}`,
	}
	subscribed := make(chan subscribeMessage, 1)
	srv := fakeFeed(t, frames, subscribed)
	defer srv.Close()

	client := NewClient(feedConfig(wsURL(srv)), 8, logger.NewLogger("FeedTest"))
	sub := client.Subscribe()
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.00, first.Price)
	assert.Len(t, first.Time, 27, "ticks carry a string timestamp")

	second, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 105.50, second.Price, "malformed frames are dropped, order is kept")

	select {
	case msg := <-subscribed:
		assert.Equal(t, "SUBSCRIBE", msg.Method)
		assert.Equal(t, []string{"btcusd_perp@markPrice"}, msg.Params)
		assert.Equal(t, 1, msg.ID)
	case <-time.After(time.Second):
		t.Fatal("feed never received the subscribe control message")
	}
}

func TestClient_UnsubscribeStopsSequence(t *testing.T) {
	subscribed := make(chan subscribeMessage, 1)
	srv := fakeFeed(t, []string{`{"p":"100.00"}`}, subscribed)
	defer srv.Close()

	client := NewClient(feedConfig(wsURL(srv)), 8, logger.NewLogger("FeedTest"))
	sub := client.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := sub.Next(ctx)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	// Backlog is empty and the stream is closed: the sequence ends.
	deadline := time.After(2 * time.Second)
	for {
		_, err := sub.Next(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
			return
		}
		select {
		case <-deadline:
			t.Fatal("sequence never terminated after Unsubscribe")
		default:
		}
	}
}
