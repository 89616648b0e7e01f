// Package alert delivers reconciliation alerts to operators: to a Kafka topic
// when a broker is configured, otherwise to the error log.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"landledger/internal/ledgersync/models"
)

// Producer is the subset of the platform Kafka producer used here.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Kafka publishes alerts as JSON keyed by land.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) Alert(ctx context.Context, a models.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := k.producer.Produce(ctx, k.topic, []byte(a.Land), payload); err != nil {
		return fmt.Errorf("publish alert %s: %w", a.EntryID, err)
	}
	return nil
}

// Log writes alerts to the logger. It never fails.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Alert(ctx context.Context, a models.Alert) error {
	l.logger.ErrorContext(ctx, "operator action required: reconciliation stuck",
		"journal_id", a.EntryID.String(),
		"workflow", a.Kind.String(),
		"land_id", a.Land.String(),
		"tx_hash", a.TxHash.String(),
		"attempts", a.Attempts,
		"error", a.LastError,
	)
	return nil
}
