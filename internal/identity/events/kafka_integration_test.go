//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"minkyc/internal/identity/events"
	"minkyc/internal/identity/models"
	"minkyc/internal/platform/config"
	"minkyc/internal/platform/kafka"
	"minkyc/pkg/domain"
	"minkyc/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	producer *kafka.Producer
	topic    string
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
	s.topic = "minkyc.test." + uuid.NewString()

	producer, err := kafka.NewProducer(config.Kafka{Brokers: s.redpanda.Brokers, ClientID: "minkyc-test", Topic: s.topic})
	s.Require().NoError(err)
	s.producer = producer

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.Require().NoError(s.producer.EnsureTopic(ctx, s.topic, 1, 1))
	s.Require().NoError(s.producer.EnsureTopic(ctx, s.topic, 1, 1), "ensuring an existing topic is a no-op")
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *KafkaPublisherSuite) TestPublishedEventIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := models.VerificationEvent{
		Identity:        domain.Address{4, 2},
		Owner:           "wallet-alice",
		Verifier:        "platform",
		RequirementHash: domain.SumDigest([]byte("req")),
		ProofHash:       domain.SumDigest([]byte("proof")),
		Timestamp:       time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Sequence:        7,
	}
	s.Require().NoError(events.NewKafkaPublisher(s.producer, s.topic).PublishVerification(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)

	var got struct {
		EventID string                   `json:"event_id"`
		Type    string                   `json:"type"`
		Data    models.VerificationEvent `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(string(records[0].Key), got.EventID)
	s.Equal(events.EventType, got.Type)
	s.Equal(event, got.Data)
}
