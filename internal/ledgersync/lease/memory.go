// Package lease implements the per-(workflow, land) in-flight table.
package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
)

type slot struct {
	token     string
	expiresAt time.Time
}

// InMemory is a single-process lease table. Expired entries are taken over
// lazily by the next Acquire.
type InMemory struct {
	mu    sync.Mutex
	slots map[string]slot
	now   func() time.Time
}

type Option func(*InMemory)

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(m *InMemory) { m.now = now }
}

func NewInMemory(opts ...Option) *InMemory {
	m := &InMemory{slots: make(map[string]slot), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func slotKey(kind models.WorkflowKind, key string) string {
	return kind.String() + ":" + key
}

func (m *InMemory) Acquire(_ context.Context, kind models.WorkflowKind, key string, ttl time.Duration) (models.Lease, error) {
	if ttl <= 0 {
		return models.Lease{}, fmt.Errorf("lease ttl must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := slotKey(kind, key)
	if s, ok := m.slots[k]; ok && now.Before(s.expiresAt) {
		return models.Lease{}, fmt.Errorf("lease %s: %w", k, sentinel.ErrHeld)
	}
	l := models.Lease{Kind: kind, Key: key, Token: uuid.NewString(), ExpiresAt: now.Add(ttl)}
	m.slots[k] = slot{token: l.Token, expiresAt: l.ExpiresAt}
	return l, nil
}

// Release drops the lease if the caller still holds it. Releasing a lease
// that expired and was taken over is a no-op.
func (m *InMemory) Release(_ context.Context, l models.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slotKey(l.Kind, l.Key)
	if s, ok := m.slots[k]; ok && s.token == l.Token {
		delete(m.slots, k)
	}
	return nil
}

// Held reports whether a live lease exists for (kind, key).
func (m *InMemory) Held(kind models.WorkflowKind, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotKey(kind, key)]
	return ok && m.now().Before(s.expiresAt)
}
