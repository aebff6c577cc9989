// Package amqp publishes finished reports to a RabbitMQ exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxAttempts    = 3
	maxBackoff     = 30 * time.Second
)

// ErrCircuitOpen is returned while the broker is considered down.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// channel is the subset of *amqp091.Channel the publisher needs.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type dialFunc func(url string) (channel, func() error, error)

// Client publishes reports to a durable topic exchange. It implements
// reports.Sink. Connections are opened lazily and re-opened after
// connection errors.
type Client struct {
	url          string
	exchangeName string
	routingKey   string
	dial         dialFunc
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	channel   channel
	closeConn func() error

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects to url and declares the exchange.
func NewClient(url, exchangeName, routingKey string) (*Client, error) {
	c := newClient(url, exchangeName, routingKey, dialAMQP)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchangeName, routingKey string, dial dialFunc) *Client {
	return &Client{
		url:          url,
		exchangeName: exchangeName,
		routingKey:   routingKey,
		dial:         dial,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

func dialAMQP(url string) (channel, func() error, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	return ch, conn.Close, nil
}

func (c *Client) connectLocked() error {
	ch, closeConn, err := c.dial(c.url)
	if err != nil {
		return err
	}
	err = ch.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		if closeConn != nil {
			closeConn()
		}
		return fmt.Errorf("declare exchange: %w", err)
	}
	c.channel = ch
	c.closeConn = closeConn
	return nil
}

func (c *Client) resetLocked() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.closeConn != nil {
		c.closeConn()
	}
	c.channel = nil
	c.closeConn = nil
}

// Write publishes report wrapped in a ReportMessage.
func (c *Client) Write(ctx context.Context, kind string, report any) error {
	msg, err := NewReportMessage(kind, report, c.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	return c.Publish(ctx, msg)
}

// Publish sends msg, retrying connection errors with exponential backoff.
func (c *Client) Publish(ctx context.Context, msg *ReportMessage) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s report: %w", msg.Kind, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, exponentialBackoff(attempt-1)); err != nil {
				return err
			}
		}
		lastErr = c.publishOnce(ctx, msg, body)
		if lastErr == nil {
			c.recordSuccess()
			slog.InfoContext(ctx, "Published report",
				"id", msg.ID,
				"kind", msg.Kind,
				"exchange", c.exchangeName,
				"routing_key", c.routingKey)
			return nil
		}
		if !isConnectionError(lastErr) {
			break
		}
		slog.WarnContext(ctx, "Publish failed, reconnecting", "error", lastErr, "attempt", attempt+1)
	}
	c.recordFailure()
	return fmt.Errorf("publish %s report: %w", msg.Kind, lastErr)
}

func (c *Client) publishOnce(ctx context.Context, msg *ReportMessage, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.routingKey,   // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Type:         msg.Kind,
			Timestamp:    msg.GeneratedAt,
			Body:         body,
		},
	)
	if err != nil && isConnectionError(err) {
		c.resetLocked()
	}
	return err
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.channel != nil {
		c.channel.Close()
	}
	if c.closeConn != nil {
		err = c.closeConn()
	}
	c.channel = nil
	c.closeConn = nil
	return err
}
