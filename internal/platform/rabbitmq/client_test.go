package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minkyc/internal/platform/config"
)

func stubDial(t *testing.T, fn func(string) (*amqp.Connection, error)) {
	t.Helper()
	orig := dialFunc
	dialFunc = fn
	t.Cleanup(func() { dialFunc = orig })
}

func TestDialWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	stubDial(t, func(string) (*amqp.Connection, error) {
		attempts++
		return nil, errors.New("connection refused")
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := dialWithRetry(context.Background(), "amqp://x", 1, logger)

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestDialWithRetry_StopsOnContextCancel(t *testing.T) {
	stubDial(t, func(string) (*amqp.Connection, error) {
		return nil, errors.New("connection refused")
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := dialWithRetry(ctx, "amqp://x", 5, logger)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), config.RabbitMQ{}, slog.Default())
	require.Error(t, err)
}
