// Package ports declares what the synchronization core needs from the chain,
// the two off-chain stores and its own infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"landledger/internal/ledgersync/models"
	listingmodels "landledger/internal/listings/models"
	recordmodels "landledger/internal/records/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/audit"
)

// ChainReader reads registry state. Calls are pure and idempotent.
type ChainReader interface {
	Identity(ctx context.Context, addr id.Address) (registrymodels.Identity, error)
	LandRecord(ctx context.Context, land id.LandID) (registrymodels.LandRecord, error)
	Listing(ctx context.Context, land id.LandID) (registrymodels.ChainListing, error)
	Events(ctx context.Context, kind registrymodels.EventKind) ([]registrymodels.ChainEvent, error)
}

// ChainWriter submits registry transactions. A simulation revert is returned
// as a chain_rejected domain error and nothing is broadcast.
type ChainWriter interface {
	RegisterIdentity(ctx context.Context, from id.Address, name string, legalID id.LegalID) (id.TxHash, error)
	MintLand(ctx context.Context, req registrymodels.MintRequest) (id.TxHash, error)
	ListForSale(ctx context.Context, from id.Address, land id.LandID, price id.Wei) (id.TxHash, error)
	CancelListing(ctx context.Context, from id.Address, land id.LandID) (id.TxHash, error)
	Buy(ctx context.Context, from id.Address, land id.LandID, value id.Wei) (id.TxHash, error)
	Transfer(ctx context.Context, from id.Address, land id.LandID, to id.Address, salePrice id.Wei) (id.TxHash, error)
}

// FinalityWaiter blocks until a transaction is confirmed, reverted or the timeout passes.
type FinalityWaiter interface {
	AwaitFinality(ctx context.Context, tx id.TxHash, timeout time.Duration) (registrymodels.Finality, error)
}

// Chain is the full registry facade.
type Chain interface {
	ChainReader
	ChainWriter
	FinalityWaiter
}

// RecordStore is the government records store.
type RecordStore interface {
	FindByLand(ctx context.Context, land id.LandID) (recordmodels.GovtRecord, error)
	FindByLandAndLegalID(ctx context.Context, land id.LandID, legalID id.LegalID) (recordmodels.GovtRecord, error)
	ListByLegalID(ctx context.Context, legalID id.LegalID) ([]recordmodels.GovtRecord, error)
	ReassignLegalID(ctx context.Context, land id.LandID, legalID id.LegalID) error
	AssignOwner(ctx context.Context, land id.LandID, ownerID uuid.UUID, legalID id.LegalID) error
}

// OwnerDirectory resolves wallets to registered owners, ignoring address case.
type OwnerDirectory interface {
	FindByWallet(ctx context.Context, wallet id.Address) (recordmodels.Owner, error)
}

// CitizenCensus is the population register consulted at identity registration.
type CitizenCensus interface {
	FindCitizen(ctx context.Context, legalID id.LegalID) (recordmodels.Citizen, error)
}

// ListingStore is the marketplace store.
type ListingStore interface {
	Get(ctx context.Context, land id.LandID) (listingmodels.Listing, error)
	Create(ctx context.Context, listing listingmodels.Listing) (listingmodels.Listing, error)
	Transition(ctx context.Context, land id.LandID, from []listingmodels.Status, to listingmodels.Status, mutate func(*listingmodels.Listing)) (listingmodels.Listing, bool, error)
	ListByStatus(ctx context.Context, status listingmodels.Status) ([]listingmodels.Listing, error)
}

// LeaseManager is the in-flight table. Acquire fails with sentinel.ErrHeld
// while another holder's lease is live.
type LeaseManager interface {
	Acquire(ctx context.Context, kind models.WorkflowKind, key string, ttl time.Duration) (models.Lease, error)
	Release(ctx context.Context, lease models.Lease) error
}

// Journal stores reconciliation entries.
type Journal interface {
	Save(ctx context.Context, entry models.JournalEntry) error
	Get(ctx context.Context, entryID uuid.UUID) (models.JournalEntry, error)
	ListOpen(ctx context.Context, limit int) ([]models.JournalEntry, error)
}

// AlertSink delivers operator alerts.
type AlertSink interface {
	Alert(ctx context.Context, alert models.Alert) error
}

// AuditPort emits audit events.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
