// Package events delivers committed verification events to downstream sinks.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"minkyc/internal/identity/models"
)

// EventType is carried as a header/routing hint on every sink.
const EventType = "identity.proof_verified"

// Publisher is satisfied by every sink in this package.
type Publisher interface {
	PublishVerification(ctx context.Context, event models.VerificationEvent) error
}

// envelope is the wire shape shared by the broker sinks.
type envelope struct {
	EventID string                   `json:"event_id"`
	Type    string                   `json:"type"`
	Data    models.VerificationEvent `json:"data"`
}

func encode(event models.VerificationEvent) (string, []byte, error) {
	id := uuid.NewString()
	body, err := json.Marshal(envelope{EventID: id, Type: EventType, Data: event})
	if err != nil {
		return "", nil, fmt.Errorf("encode verification event: %w", err)
	}
	return id, body, nil
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishVerification(ctx context.Context, event models.VerificationEvent) error {
	p.logger.InfoContext(ctx, "verification event",
		"type", EventType,
		"identity", event.Identity.String(),
		"owner", event.Owner.String(),
		"verifier", event.Verifier.String(),
		"proof_hash", event.ProofHash.String(),
		"requirement_hash", event.RequirementHash.String(),
		"sequence", event.Sequence,
		"timestamp", event.Timestamp,
	)
	return nil
}
