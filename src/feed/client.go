package feed

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"sync"
	"time"

	"mark-price-dashboard/src/helpers"
	"mark-price-dashboard/src/logger"
	"mark-price-dashboard/src/models"
	"mark-price-dashboard/src/utils"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Feed Client
// -----------------------------------------------------------------------------

// Client maintains the persistent socket to the external mark-price feed and
// turns inbound messages into MTick values.
type Client struct {
	Config  models.MFeedConfig
	Tz      int
	Logger  *logger.Logger
	dialer  *websocket.Dialer
}

// -----------------------------------------------------------------------------

func NewClient(cfg models.MFeedConfig, tzHours int, log *logger.Logger) *Client {
	return &Client{
		Config: cfg,
		Tz:     tzHours,
		Logger: log,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// -----------------------------------------------------------------------------
// Wire messages
// -----------------------------------------------------------------------------

type subscribeMessage struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// markPriceMessage carries the fields we consume; everything else inbound is
// ignored.
type markPriceMessage struct {
	Price string `json:"p"`
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

// Subscription is a lazy, infinite tick sequence backed by a single-waiter
// queue. Single-consumer contract: one goroutine calls Next in a loop.
type Subscription struct {
	stream *Stream[models.MTick]
	done   chan struct{}
	once   sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

// -----------------------------------------------------------------------------

// Next blocks until the next tick arrives. Returns ErrClosed after
// Unsubscribe once the backlog is drained, or the context error on cancel.
func (s *Subscription) Next(ctx context.Context) (models.MTick, error) {
	return s.stream.Next(ctx)
}

// -----------------------------------------------------------------------------

// Unsubscribe closes the socket and stops enqueueing. Safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
		s.stream.Close()
	})
}

// -----------------------------------------------------------------------------

func (s *Subscription) setConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conn = conn
	return true
}

// -----------------------------------------------------------------------------
// Connection loop
// -----------------------------------------------------------------------------

// Subscribe connects to the feed and returns the tick sequence. The
// connection is kept alive with exponential-backoff reconnects until
// Unsubscribe is called.
func (c *Client) Subscribe() *Subscription {
	sub := &Subscription{
		stream: NewStream[models.MTick](),
		done:   make(chan struct{}),
	}
	go c.run(sub)
	return sub
}

// -----------------------------------------------------------------------------

func (c *Client) run(sub *Subscription) {
	baseDelay := time.Duration(c.Config.ReconnectBaseDelaySeconds) * time.Second
	maxDelay := time.Duration(c.Config.ReconnectMaxDelaySeconds) * time.Second
	attempt := 0

	for {
		select {
		case <-sub.done:
			return
		default:
		}

		err := c.connectAndRead(sub, &attempt)
		select {
		case <-sub.done:
			return
		default:
		}

		delay := helpers.BackoffDelay(attempt, baseDelay, maxDelay)
		attempt++
		c.Logger.Warning("Feed connection lost (%v), reconnecting in %v", err, delay)

		select {
		case <-sub.done:
			return
		case <-time.After(delay):
		}
	}
}

// -----------------------------------------------------------------------------

// connectAndRead dials, sends the subscribe control message and pumps ticks
// into the stream until the connection drops.
func (c *Client) connectAndRead(sub *Subscription, attempt *int) error {
	conn, _, err := c.dialer.Dial(c.Config.URL, nil)
	if err != nil {
		return helpers.NewIOError("feed dial failed", err)
	}
	if !sub.setConn(conn) {
		conn.Close()
		return ErrClosed
	}

	msg := subscribeMessage{
		Method: "SUBSCRIBE",
		Params: []string{c.Config.Symbol + "@markPrice"},
		ID:     1,
	}
	if err := conn.WriteJSON(msg); err != nil {
		conn.Close()
		return helpers.NewIOError("feed subscribe failed", err)
	}
	c.Logger.Info("Subscribed to %s@markPrice", c.Config.Symbol)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return helpers.NewIOError("feed read failed", err)
		}
		// A delivered message proves the connection is healthy again.
		*attempt = 0

		tick, ok := c.parseTick(raw)
		if !ok {
			continue
		}
		sub.stream.Push(tick)
	}
}

// -----------------------------------------------------------------------------

// parseTick extracts the mark price. Malformed or unparseable prices are
// silently dropped per the feed contract, never surfaced as errors.
func (c *Client) parseTick(raw []byte) (models.MTick, bool) {
	var msg markPriceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.Logger.Debug("Dropping malformed feed message: %v", err)
		return models.MTick{}, false
	}

	price, err := strconv.ParseFloat(msg.Price, 64)
	if err != nil || math.IsNaN(price) {
		c.Logger.Debug("Dropping unparseable price %q", msg.Price)
		return models.MTick{}, false
	}

	now, err := utils.NowString(c.Tz)
	if err != nil {
		// Timezone is validated at config load, this cannot happen in a
		// wired process.
		c.Logger.Error("Timestamp render failed: %v", err)
		return models.MTick{}, false
	}

	return models.MTick{Time: now, Price: price}, true
}
