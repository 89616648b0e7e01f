package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landledger/internal/ledgersync/models"
)

type recordingProducer struct {
	err   error
	topic string
	key   []byte
	value []byte
}

func (p *recordingProducer) Produce(_ context.Context, topic string, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func sampleAlert() models.Alert {
	return models.Alert{
		EntryID:      uuid.New(),
		Kind:         models.WorkflowPurchase,
		Land:         "Plot-1",
		TxHash:       "0xabc",
		FailedStores: []models.Store{models.StoreRecords},
		Attempts:     5,
		LastError:    "records database unavailable",
	}
}

func TestKafka_PublishesKeyedByLand(t *testing.T) {
	producer := &recordingProducer{}
	sink := NewKafka(producer, "landledger.reconcile.alerts")
	a := sampleAlert()

	require.NoError(t, sink.Alert(context.Background(), a))
	assert.Equal(t, "landledger.reconcile.alerts", producer.topic)
	assert.Equal(t, "Plot-1", string(producer.key))

	var decoded models.Alert
	require.NoError(t, json.Unmarshal(producer.value, &decoded))
	assert.Equal(t, a.EntryID, decoded.EntryID)
	assert.Equal(t, []models.Store{models.StoreRecords}, decoded.FailedStores)
}

func TestKafka_PropagatesProducerError(t *testing.T) {
	sink := NewKafka(&recordingProducer{err: errors.New("broker unreachable")}, "alerts")
	err := sink.Alert(context.Background(), sampleAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestLog_WritesErrorRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Alert(context.Background(), sampleAlert()))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"land_id":"Plot-1"`)
}
