package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"landledger/internal/records/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/requestcontext"
)

// InMemory is a records store for tests and STORE_MODE=memory dev runs.
// It also serves the owner directory and the citizen census.
type InMemory struct {
	mu       sync.RWMutex
	records  map[id.LandID]models.GovtRecord
	owners   map[uuid.UUID]models.Owner
	citizens map[id.LegalID]models.Citizen
}

func NewInMemory() *InMemory {
	return &InMemory{
		records:  make(map[id.LandID]models.GovtRecord),
		owners:   make(map[uuid.UUID]models.Owner),
		citizens: make(map[id.LegalID]models.Citizen),
	}
}

// SaveRecord upserts a government record.
func (s *InMemory) SaveRecord(_ context.Context, rec models.GovtRecord) error {
	if rec.Land.IsNil() {
		return fmt.Errorf("save record: land id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Land] = rec
	return nil
}

// SaveOwner upserts an owner directory entry, assigning an id when missing.
func (s *InMemory) SaveOwner(_ context.Context, owner models.Owner) (models.Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for existingID, existing := range s.owners {
		if existing.Wallet.Equal(owner.Wallet) && existingID != owner.ID {
			return models.Owner{}, fmt.Errorf("save owner %s: %w", owner.Wallet, sentinel.ErrConflict)
		}
	}
	if owner.ID == uuid.Nil {
		owner.ID = uuid.New()
	}
	owner.Wallet = id.Address(strings.ToLower(owner.Wallet.String()))
	s.owners[owner.ID] = owner
	return owner, nil
}

func (s *InMemory) SaveCitizen(_ context.Context, c models.Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.citizens[c.LegalID] = c
	return nil
}

func (s *InMemory) FindByLand(_ context.Context, land id.LandID) (models.GovtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[land]
	if !ok {
		return models.GovtRecord{}, sentinel.ErrNotFound
	}
	return rec, nil
}

// FindByLandAndLegalID returns the record only when both keys match.
func (s *InMemory) FindByLandAndLegalID(_ context.Context, land id.LandID, legalID id.LegalID) (models.GovtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[land]
	if !ok || !rec.HeldBy(legalID) {
		return models.GovtRecord{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *InMemory) ListByLegalID(_ context.Context, legalID id.LegalID) ([]models.GovtRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GovtRecord
	for _, rec := range s.records {
		if rec.HeldBy(legalID) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Land < out[j].Land })
	return out, nil
}

// ReassignLegalID records a purchase. Writing the value already present is a no-op.
func (s *InMemory) ReassignLegalID(ctx context.Context, land id.LandID, legalID id.LegalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[land]
	if !ok {
		return fmt.Errorf("reassign legal id for %s: %w", land, sentinel.ErrNotFound)
	}
	if rec.OwnerLegalID == legalID {
		return nil
	}
	rec.OwnerLegalID = legalID
	rec.UpdatedAt = requestcontext.Now(ctx)
	s.records[land] = rec
	return nil
}

// AssignOwner records a title transfer to a directory entry.
func (s *InMemory) AssignOwner(ctx context.Context, land id.LandID, ownerID uuid.UUID, legalID id.LegalID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[land]
	if !ok {
		return fmt.Errorf("assign owner for %s: %w", land, sentinel.ErrNotFound)
	}
	if rec.OwnerID == ownerID && (legalID.IsNil() || rec.OwnerLegalID == legalID) {
		return nil
	}
	rec.OwnerID = ownerID
	if !legalID.IsNil() {
		rec.OwnerLegalID = legalID
	}
	rec.UpdatedAt = requestcontext.Now(ctx)
	s.records[land] = rec
	return nil
}

// FindByWallet looks an owner up by wallet, ignoring case.
func (s *InMemory) FindByWallet(_ context.Context, wallet id.Address) (models.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, owner := range s.owners {
		if owner.Wallet.Equal(wallet) {
			return owner, nil
		}
	}
	return models.Owner{}, sentinel.ErrNotFound
}

func (s *InMemory) FindCitizen(_ context.Context, legalID id.LegalID) (models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.citizens[legalID]
	if !ok {
		return models.Citizen{}, sentinel.ErrNotFound
	}
	return c, nil
}

// Snapshot returns a copy of a record regardless of legal id, for assertions.
func (s *InMemory) Snapshot(land id.LandID) (models.GovtRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[land]
	return rec, ok
}

