package events

import (
	"context"

	"minkyc/internal/identity/models"
)

// MessagePublisher sends one message to a pre-declared exchange.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

// RabbitPublisher routes events on a topic exchange.
type RabbitPublisher struct {
	publisher  MessagePublisher
	routingKey string
}

func NewRabbitPublisher(publisher MessagePublisher, routingKey string) *RabbitPublisher {
	return &RabbitPublisher{publisher: publisher, routingKey: routingKey}
}

func (p *RabbitPublisher) PublishVerification(ctx context.Context, event models.VerificationEvent) error {
	id, body, err := encode(event)
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, p.routingKey, id, body)
}
