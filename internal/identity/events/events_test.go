package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/circuit"
)

func sampleEvent() models.VerificationEvent {
	return models.VerificationEvent{
		Identity:        domain.Address{1, 2, 3},
		Owner:           "wallet-alice",
		Verifier:        "platform-verifier",
		RequirementHash: domain.SumDigest([]byte("req")),
		ProofHash:       domain.SumDigest([]byte("proof")),
		Timestamp:       time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Sequence:        42,
	}
}

type recordedRecord struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

type fakeProducer struct {
	records []recordedRecord
	err     error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.records = append(f.records, recordedRecord{topic, key, value, headers})
	return f.err
}

type fakeAMQP struct {
	routingKey string
	messageID  string
	body       []byte
}

func (f *fakeAMQP) Publish(_ context.Context, routingKey, messageID string, body []byte) error {
	f.routingKey, f.messageID, f.body = routingKey, messageID, body
	return nil
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestKafkaPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "minkyc.identity.verified")
	event := sampleEvent()

	require.NoError(t, pub.PublishVerification(context.Background(), event))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "minkyc.identity.verified", rec.topic)
	_, err := uuid.Parse(string(rec.key))
	assert.NoError(t, err, "record key is the event id")
	assert.Equal(t, event.Identity.String(), rec.headers["identity"])
	assert.Equal(t, "42", rec.headers["sequence"])

	env := decodeEnvelope(t, rec.value)
	assert.Equal(t, string(rec.key), env.EventID)
	assert.Equal(t, EventType, env.Type)
	assert.Equal(t, event, env.Data)
}

func TestKafkaPublisher_PropagatesError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("not leader")}
	err := NewKafkaPublisher(producer, "t").PublishVerification(context.Background(), sampleEvent())
	assert.Error(t, err)
}

func TestRabbitPublisher(t *testing.T) {
	amqp := &fakeAMQP{}
	event := sampleEvent()

	require.NoError(t, NewRabbitPublisher(amqp, "identity.verified").PublishVerification(context.Background(), event))

	assert.Equal(t, "identity.verified", amqp.routingKey)
	env := decodeEnvelope(t, amqp.body)
	assert.Equal(t, amqp.messageID, env.EventID)
	assert.Equal(t, event, env.Data)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, pub.PublishVerification(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"sequence":42`)
	assert.Contains(t, buf.String(), EventType)
}

type stubSink struct {
	calls int
	err   error
}

func (s *stubSink) PublishVerification(context.Context, models.VerificationEvent) error {
	s.calls++
	return s.err
}

type countingFailures map[string]int

func (c countingFailures) IncrementEventPublishFailed(sink string) { c[sink]++ }

func TestFanout_DeliversToEverySinkDespiteFailure(t *testing.T) {
	failing := &stubSink{err: errors.New("broker down")}
	healthy := &stubSink{}
	failures := countingFailures{}
	fan := NewFanout(failures).Add("kafka", failing).Add("log", healthy)

	err := fan.PublishVerification(context.Background(), sampleEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka: broker down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
	assert.Equal(t, countingFailures{"kafka": 1}, failures)
	assert.Equal(t, 2, fan.Len())
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, NewFanout(nil).PublishVerification(context.Background(), sampleEvent()))
}

func TestFanout_GuardedSinkSkippedWhileOpen(t *testing.T) {
	failing := &stubSink{err: errors.New("broker down")}
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	failures := countingFailures{}
	fan := NewFanout(failures).AddGuarded("kafka", failing, breaker)

	for range 2 {
		require.Error(t, fan.PublishVerification(context.Background(), sampleEvent()))
	}
	assert.True(t, breaker.IsOpen())

	err := fan.PublishVerification(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, ErrSinkUnavailable)
	assert.Equal(t, 2, failing.calls, "open breaker short-circuits the sink")
	assert.Equal(t, countingFailures{"kafka": 3}, failures)
}

func TestFanout_GuardedSinkSuccessKeepsBreakerClosed(t *testing.T) {
	healthy := &stubSink{}
	breaker := circuit.New("rabbitmq", circuit.WithFailureThreshold(1))

	require.NoError(t, NewFanout(nil).AddGuarded("rabbitmq", healthy, breaker).PublishVerification(context.Background(), sampleEvent()))
	assert.Equal(t, circuit.StateClosed, breaker.State())
}
