package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"landledger/internal/listings/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

// InMemory keeps one listing per land, mirroring the unique land_id key of
// the listings table.
type InMemory struct {
	mu       sync.RWMutex
	listings map[id.LandID]models.Listing
}

func NewInMemory() *InMemory {
	return &InMemory{listings: make(map[id.LandID]models.Listing)}
}

func (s *InMemory) Get(_ context.Context, land id.LandID) (models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[land]
	if !ok {
		return models.Listing{}, sentinel.ErrNotFound
	}
	return clone(l), nil
}

// Create inserts a listing, replacing a sold or withdrawn one for the same land.
func (s *InMemory) Create(ctx context.Context, listing models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.listings[listing.Land]; ok && existing.Open() {
		return models.Listing{}, fmt.Errorf("create listing for %s: %w", listing.Land, sentinel.ErrConflict)
	}
	now := requestcontext.Now(ctx)
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if listing.Status == "" {
		listing.Status = models.StatusListed
	}
	listing.CreatedAt = now
	listing.UpdatedAt = now
	listing = clone(listing)
	s.listings[listing.Land] = listing
	return clone(listing), nil
}

// Transition moves a listing from one of the given states to to. A listing
// already at to is returned with applied=false.
func (s *InMemory) Transition(ctx context.Context, land id.LandID, from []models.Status, to models.Status, mutate func(*models.Listing)) (models.Listing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.listings[land]
	if !ok {
		return models.Listing{}, false, fmt.Errorf("transition listing %s: %w", land, sentinel.ErrNotFound)
	}
	if current.Status == to {
		return clone(current), false, nil
	}
	if !slices.Contains(from, current.Status) {
		return clone(current), false, fmt.Errorf("transition listing %s from %s to %s: %w", land, current.Status, to, sentinel.ErrInvalidState)
	}
	next := clone(current)
	if mutate != nil {
		mutate(&next)
	}
	next.Status = to
	next.UpdatedAt = requestcontext.Now(ctx)
	s.listings[land] = next
	return clone(next), true, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Listing
	for _, l := range s.listings {
		if status == "" || l.Status == status {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Land < out[j].Land
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func clone(l models.Listing) models.Listing {
	l.Photos = slices.Clone(l.Photos)
	return l
}
