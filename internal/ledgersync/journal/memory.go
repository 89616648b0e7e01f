// Package journal stores reconciliation entries for workflows whose chain step
// finalized (or may have) while off-chain writes were still outstanding.
package journal

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]models.JournalEntry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uuid.UUID]models.JournalEntry)}
}

func (j *InMemory) Save(_ context.Context, entry models.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.FailedStores = slices.Clone(entry.FailedStores)
	j.entries[entry.ID] = entry
	return nil
}

func (j *InMemory) Get(_ context.Context, entryID uuid.UUID) (models.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, ok := j.entries[entryID]
	if !ok {
		return models.JournalEntry{}, sentinel.ErrNotFound
	}
	e.FailedStores = slices.Clone(e.FailedStores)
	return e, nil
}

// ListOpen returns unresolved entries, oldest first. limit <= 0 means all.
func (j *InMemory) ListOpen(_ context.Context, limit int) ([]models.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []models.JournalEntry
	for _, e := range j.entries {
		if e.Open() {
			e.FailedStores = slices.Clone(e.FailedStores)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
