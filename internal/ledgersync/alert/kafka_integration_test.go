//go:build integration

package alert_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"landledger/internal/ledgersync/alert"
	"landledger/internal/ledgersync/models"
	"landledger/internal/platform/kafka"
	"landledger/pkg/testutil/containers"
)

func TestKafkaAlert_RoundTripThroughBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t).Broker
	producer, err := kafka.NewProducer(ctx, []string{broker}, "landledger-test")
	require.NoError(t, err)
	defer producer.Close(ctx)

	topic := "landledger.reconcile.alerts." + uuid.NewString()[:8]
	sent := models.Alert{EntryID: uuid.New(), Kind: models.WorkflowTransfer, Land: "Plot-5", Attempts: 5}
	require.NoError(t, alert.NewKafka(producer, topic).Alert(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "Plot-5", string(records[0].Key))

	var got models.Alert
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, sent.EntryID, got.EntryID)
}
