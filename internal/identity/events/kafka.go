package events

import (
	"context"
	"strconv"

	"minkyc/internal/identity/models"
)

// RecordProducer writes one keyed record synchronously.
type RecordProducer interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaPublisher keys each record by event ID and tags it with the identity
// address so consumers can partition their own state.
type KafkaPublisher struct {
	producer RecordProducer
	topic    string
}

func NewKafkaPublisher(producer RecordProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishVerification(ctx context.Context, event models.VerificationEvent) error {
	id, body, err := encode(event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.topic, []byte(id), body, map[string]string{
		"event_type": EventType,
		"identity":   event.Identity.String(),
		"sequence":   strconv.FormatUint(event.Sequence, 10),
	})
}
