package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "landledger/pkg/platform/audit"
	"landledger/pkg/platform/audit/store/memory"
	"landledger/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		LandID: "Plot-1",
		Action: string(audit.EventLandMinted),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "Plot-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventLandMinted), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			LandID: "Plot-2",
			Action: string(audit.EventListingCreated),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByLand(context.Background(), "Plot-2")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	// the drain goroutine holds one event, the buffer holds the next
	var wg sync.WaitGroup
	var mu sync.Mutex
	var dropped int
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventPriceLocked)}); err != nil {
				mu.Lock()
				dropped++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(store.release)
	pub.Close()

	assert.Positive(t, dropped)
}

func TestPublisher_EnrichesFromContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithClientIP(ctx, "10.1.1.1")

	before := time.Now()
	require.NoError(t, pub.Emit(ctx, audit.Event{LandID: "Plot-3", Action: string(audit.EventSellerMismatch)}))

	events, err := pub.List(ctx, "Plot-3")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "req-42", events[0].RequestID)
	assert.Equal(t, "10.1.1.1", events[0].ClientIP)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.False(t, events[0].Timestamp.Before(before))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Emit(context.Background(), audit.Event{
		LandID:    "Plot-4",
		Action:    string(audit.EventTitleTransferred),
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "Plot-4")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_SyncPropagatesStoreError(t *testing.T) {
	pub := NewPublisher(failingStore{})
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventLandMinted)})
	require.Error(t, err)

	_, err = pub.List(context.Background(), "Plot-1")
	assert.Error(t, err, "store without listing support")
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("broker down") }

type blockingStore struct {
	release chan struct{}
}

func (s *blockingStore) Append(context.Context, audit.Event) error {
	<-s.release
	return nil
}
