package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"minkyc/internal/platform/config"
)

// ExchangeType names the AMQP exchange kinds.
type ExchangeType string

const (
	ExchangeFanout ExchangeType = "fanout"
	ExchangeDirect ExchangeType = "direct"
	ExchangeTopic  ExchangeType = "topic"
)

const initialRetryWait = time.Second

// dialFunc is swapped in tests.
var dialFunc = amqp.Dial

// Client owns one connection and one publishing channel.
type Client struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// Connect dials with exponential backoff and declares a durable topic exchange.
func Connect(ctx context.Context, cfg config.RabbitMQ, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq: RABBITMQ_URL is required")
	}
	conn, err := dialWithRetry(ctx, cfg.URL, cfg.MaxRetries, logger)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, cfg.Exchange, ExchangeTopic); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

func dialWithRetry(ctx context.Context, url string, maxRetries int, logger *slog.Logger) (*amqp.Connection, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	wait := initialRetryWait
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *amqp.Connection
		conn, err = dialFunc(url)
		if err == nil {
			return conn, nil
		}
		if attempt == maxRetries {
			break
		}
		logger.WarnContext(ctx, "rabbitmq dial failed, retrying",
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("dial rabbitmq: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return nil, fmt.Errorf("dial rabbitmq after %d attempts: %w", maxRetries, err)
}

func declareExchange(ch *amqp.Channel, name string, kind ExchangeType) error {
	err := ch.ExchangeDeclare(
		name,         // name
		string(kind), // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

// Publish sends a persistent JSON message to the client's exchange.
func (c *Client) Publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.ch.PublishWithContext(ctx,
		c.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    messageID,
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (c *Client) Health() error {
	if c.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.ch.Close(), c.conn.Close())
}
