// Package kafka forwards audit events to a Kafka topic as JSON, keyed by land
// so every event for one parcel lands on the same partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	audit "landledger/pkg/platform/audit"
	"landledger/pkg/platform/circuit"
)

// Producer is the subset of the platform Kafka producer used here.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Store implements audit.Store on top of a Kafka producer.
type Store struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func New(producer Producer, topic string, logger *slog.Logger) *Store {
	return &Store{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-kafka", circuit.WithFailureThreshold(3)),
		logger:   logger,
	}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := s.producer.Produce(ctx, s.topic, []byte(event.LandID), payload); err != nil {
		if _, change := s.breaker.RecordFailure(); change.Opened && s.logger != nil {
			s.logger.Warn("audit sink unavailable", "topic", s.topic, "error", err)
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed && s.logger != nil {
		s.logger.Info("audit sink recovered", "topic", s.topic)
	}
	return nil
}
