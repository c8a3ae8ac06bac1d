package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	applog "presupuesto/internal/log"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
	maxBackoff       = 30 * time.Second
	publishTimeout   = 5 * time.Second
)

// Handler processes one event. Returning an error requeues the delivery.
type Handler func(ctx context.Context, ev EntryEvent) error

// Topology is a durable direct exchange with one durable queue bound to it.
// The queue name doubles as the routing key.
type Topology struct {
	Exchange string
	Queue    string
}

func (t Topology) declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(t.Exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.Queue, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s to %s: %w", t.Queue, t.Exchange, err)
	}
	return nil
}

// ErrNotConnected is returned by Publish while the broker connection is
// down. A reconnect is already running in the background when it is seen.
var ErrNotConnected = errors.New("not connected to AMQP broker")

// Client publishes and consumes entry events. Publish never dials: a dropped
// connection is re-established by a background goroutine, while Consume
// re-dials inline.
type Client struct {
	url    string
	topo   Topology
	logger *applog.Logger
	cb     *breaker
	dial   func(url string) (*amqp091.Connection, error)

	redialing atomic.Bool

	mu     sync.Mutex
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	closed bool
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(url, exchange, queue string, logger *applog.Logger) (*Client, error) {
	if logger == nil {
		logger = applog.Default(applog.ComponentAMQP)
	}
	c := newClient(url, Topology{Exchange: exchange, Queue: queue}, logger)

	conn, ch, err := c.open()
	if err != nil {
		return nil, err
	}
	c.conn, c.ch = conn, ch
	return c, nil
}

func newClient(url string, topo Topology, logger *applog.Logger) *Client {
	return &Client{
		url:    url,
		topo:   topo,
		logger: logger.WithComponent(applog.ComponentAMQP),
		cb:     newBreaker(breakerThreshold, breakerCooldown),
		dial:   amqp091.Dial,
	}
}

// open dials and declares the topology without touching c's state.
func (c *Client) open() (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := c.dial(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err == nil {
		err = c.topo.declare(ch)
	}
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func (c *Client) connectedLocked() bool {
	return c.ch != nil && !c.ch.IsClosed() && !c.conn.IsClosed()
}

// channelLocked returns the open channel, re-dialing inline when it has
// dropped. Only the consumer uses it.
func (c *Client) channelLocked() (*amqp091.Channel, error) {
	if c.connectedLocked() {
		return c.ch, nil
	}
	if c.closed {
		return nil, ErrNotConnected
	}
	c.resetLocked()
	conn, ch, err := c.open()
	if err != nil {
		return nil, err
	}
	c.conn, c.ch = conn, ch
	c.logger.Info("Reconnected to AMQP broker", "exchange", c.topo.Exchange, "queue", c.topo.Queue)
	return c.ch, nil
}

// redial reconnects in the background. At most one attempt runs at a time
// and c.mu is held only to install the result.
func (c *Client) redial() {
	if !c.redialing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.redialing.Store(false)
		conn, ch, err := c.open()
		if err != nil {
			c.logger.Warn("AMQP reconnect failed", applog.FieldError, err)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.connectedLocked() {
			conn.Close()
			return
		}
		c.resetLocked()
		c.conn, c.ch = conn, ch
		c.logger.Info("Reconnected to AMQP broker", "exchange", c.topo.Exchange, "queue", c.topo.Queue)
	}()
}

// resetLocked closes the connection and returns its error. Closing the
// connection closes the channel with it.
func (c *Client) resetLocked() error {
	conn := c.conn
	c.conn, c.ch = nil, nil
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Publish sends ev as a persistent JSON message. It fails fast with
// ErrNotConnected while the connection is down and with ErrCircuitOpen after
// repeated broker failures.
func (c *Client) Publish(ctx context.Context, ev EntryEvent) error {
	if !c.cb.allow() {
		return fmt.Errorf("publish %s %s %d: %w", ev.Type, ev.Kind, ev.ID, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	var ch *amqp091.Channel
	if c.connectedLocked() {
		ch = c.ch
	} else {
		err = ErrNotConnected
		if !c.closed {
			c.redial()
		}
	}
	if err == nil {
		err = ch.PublishWithContext(ctx, c.topo.Exchange, c.topo.Queue, false, false, amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    ev.Timestamp,
			Body:         body,
		})
		if err != nil && isConnectionError(err) {
			c.resetLocked()
			c.redial()
		}
	}
	if err != nil {
		if c.cb.failure() {
			c.logger.Warn("AMQP circuit breaker opened", "cooldown", breakerCooldown)
		}
		return fmt.Errorf("publish %s %s %d: %w", ev.Type, ev.Kind, ev.ID, err)
	}
	c.cb.success()

	c.logger.DebugContext(ctx, "Published entry event", eventAttrs(ev)...)
	return nil
}

// Consume delivers events to handler until ctx is done, reconnecting with
// exponential backoff when the broker goes away.
func (c *Client) Consume(ctx context.Context, handler Handler) error {
	for attempt := 0; ; attempt++ {
		delivered, err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		if delivered > 0 {
			attempt = 0
		}

		wait := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Consumer interrupted, reconnecting",
			applog.FieldError, err, "attempt", attempt+1, "backoff", wait)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) subscribe() (<-chan amqp091.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, err := c.channelLocked()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		c.resetLocked()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	msgs, err := ch.Consume(c.topo.Queue, "", false, false, false, false, nil)
	if err != nil {
		c.resetLocked()
		return nil, fmt.Errorf("consume %s: %w", c.topo.Queue, err)
	}
	return msgs, nil
}

func (c *Client) consumeOnce(ctx context.Context, handler Handler) (int, error) {
	msgs, err := c.subscribe()
	if err != nil {
		return 0, err
	}
	c.logger.InfoContext(ctx, "Started consuming entry events", "queue", c.topo.Queue)

	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				c.mu.Lock()
				c.resetLocked()
				c.mu.Unlock()
				return n, errors.New("delivery channel closed")
			}
			n++
			dispatch(ctx, c.logger, d.Body, d, handler)
		}
	}
}

// acknowledger is the part of amqp091.Delivery that dispatch needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// dispatch drops undecodable bodies and requeues events the handler fails.
func dispatch(ctx context.Context, logger *applog.Logger, body []byte, ack acknowledger, handler Handler) {
	ev, err := EntryEventFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Dropping malformed message", applog.FieldError, err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to handle entry event", append(eventAttrs(ev), applog.FieldError, err)...)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
	logger.InfoContext(ctx, "Processed entry event", eventAttrs(ev)...)
}

func eventAttrs(ev EntryEvent) []any {
	return []any{
		applog.FieldEventType, ev.Type,
		applog.FieldEntryKind, ev.Kind,
		applog.FieldEntryID, ev.ID,
	}
}

// Close closes the connection to the broker and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.resetLocked()
}

// exponentialBackoff doubles from one second and caps at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

var connectionErrorMarkers = []string{
	"connection refused",
	"connection closed",
	"connection reset",
	"eof",
	"broken pipe",
	"use of closed network connection",
	"channel/connection is not open",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range connectionErrorMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
