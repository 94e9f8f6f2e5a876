package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("MINKYC_STORE", "")
	t.Setenv("MINKYC_EVENTS", "")
	t.Setenv("IDENTITY_MULTI", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Identity.Store)
	assert.Equal(t, []string{SinkLog}, cfg.Identity.Events)
	assert.True(t, cfg.Identity.MultiIdentity)
	assert.Equal(t, 5*time.Second, cfg.Identity.TxTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MINKYC_STORE", "postgres")
	t.Setenv("MINKYC_SEQUENCE", "redis")
	t.Setenv("MINKYC_EVENTS", "log, kafka ,log")
	t.Setenv("IDENTITY_MULTI", "false")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("IDENTITY_TX_TIMEOUT", "not-a-duration")

	cfg := FromEnv()

	assert.Equal(t, BackendPostgres, cfg.Identity.Store)
	assert.Equal(t, BackendRedis, cfg.Identity.Sequence)
	assert.Equal(t, []string{SinkLog, SinkKafka}, cfg.Identity.Events)
	assert.True(t, cfg.Identity.HasSink(SinkKafka))
	assert.False(t, cfg.Identity.HasSink(SinkRabbitMQ))
	assert.False(t, cfg.Identity.MultiIdentity)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Identity.TxTimeout, "unparseable durations fall back")
}
