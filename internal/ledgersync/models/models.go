// Package models holds the types the synchronization core passes between its
// workflows, the lease table, the reconciliation journal and the transport.
package models

import (
	"time"

	"github.com/google/uuid"

	listingmodels "landledger/internal/listings/models"
	recordmodels "landledger/internal/records/models"
	registrymodels "landledger/internal/registry/models"
	id "landledger/pkg/domain"
)

// WorkflowKind names a mutating workflow. Leases are keyed by (kind, land).
type WorkflowKind string

const (
	WorkflowVerify   WorkflowKind = "verify"
	WorkflowRegister WorkflowKind = "register"
	WorkflowList     WorkflowKind = "create_listing"
	WorkflowLock     WorkflowKind = "lock_price"
	WorkflowCancel   WorkflowKind = "cancel_listing"
	WorkflowPurchase WorkflowKind = "purchase"
	WorkflowTransfer WorkflowKind = "transfer"
)

func (k WorkflowKind) String() string { return string(k) }

// Lease is a held in-flight lock. Token proves ownership on release.
type Lease struct {
	Kind      WorkflowKind
	Key       string
	Token     string
	ExpiresAt time.Time
}

// Store names an off-chain store an effect writes to.
type Store string

const (
	StoreRecords  Store = "records"
	StoreListings Store = "listings"
)

// EntryState is the lifecycle of a journal entry.
type EntryState string

const (
	// EntryAwaitingFinality: submitted, finality not yet observed. Chain state
	// must be re-queried before anything is retried.
	EntryAwaitingFinality EntryState = "awaiting_finality"
	// EntryPending: chain finalized, some off-chain effects still failing.
	EntryPending  EntryState = "pending"
	EntryResolved EntryState = "resolved"
)

// Effect is the data needed to replay the off-chain writes of a workflow.
// LegalID is the acquiring party's on-chain legal id, never user input.
type Effect struct {
	LegalID  id.LegalID `json:"legal_id,omitempty"`
	NewOwner id.Address `json:"new_owner,omitempty"`
	Price    string     `json:"price,omitempty"`
}

// JournalEntry records a workflow whose chain step finished (or may have)
// while its off-chain writes are outstanding.
type JournalEntry struct {
	ID           uuid.UUID    `json:"id"`
	Kind         WorkflowKind `json:"kind"`
	Land         id.LandID    `json:"land_id"`
	TxHash       id.TxHash    `json:"tx_hash"`
	State        EntryState   `json:"state"`
	FailedStores []Store      `json:"failed_stores,omitempty"`
	Effect       Effect       `json:"effect"`
	Attempts     int          `json:"attempts"`
	LastError    string       `json:"last_error,omitempty"`
	Alerted      bool         `json:"alerted,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Open reports whether the entry still needs work.
func (e JournalEntry) Open() bool {
	return e.State != EntryResolved
}

// Alert is published to operators when replay attempts are exhausted.
type Alert struct {
	EntryID      uuid.UUID    `json:"entry_id"`
	Kind         WorkflowKind `json:"kind"`
	Land         id.LandID    `json:"land_id"`
	TxHash       id.TxHash    `json:"tx_hash"`
	FailedStores []Store      `json:"failed_stores"`
	Attempts     int          `json:"attempts"`
	LastError    string       `json:"last_error"`
	RaisedAt     time.Time    `json:"raised_at"`
}

// =============================================================================
// Workflow inputs and results
// =============================================================================

// VerifyRequest asks to mint a land the wallet holds on paper. DocumentHash
// and LandType fall back to configured defaults.
type VerifyRequest struct {
	Wallet       id.Address
	Land         id.LandID
	DocumentHash string
	LandType     *registrymodels.LandType
}

type VerifyResult struct {
	TxHash id.TxHash
	Block  uint64
}

type RegisterRequest struct {
	Wallet  id.Address
	Name    string
	LegalID id.LegalID
}

// RegisterResult carries a warning when the supplied name differs from the census.
type RegisterResult struct {
	TxHash       id.TxHash
	NameMismatch bool
	CensusName   string
}

type CreateListingRequest struct {
	Seller      id.Address
	Land        id.LandID
	Description string
	Location    string
	Contact     string
	PriceMin    id.Wei
	PriceMax    id.Wei
	Photos      []string
}

type LockPriceRequest struct {
	Seller id.Address
	Land   id.LandID
	Price  id.Wei
}

type CancelRequest struct {
	Seller id.Address
	Land   id.LandID
}

type PurchaseRequest struct {
	Buyer id.Address
	Land  id.LandID
}

type TransferRequest struct {
	Owner    id.Address
	NewOwner id.Address
	Land     id.LandID
}

// ListingResult is returned by the listing lifecycle workflows. TxHash is empty
// when no chain call was needed. AlreadyDone marks an idempotent no-op.
type ListingResult struct {
	TxHash      id.TxHash
	Listing     listingmodels.Listing
	AlreadyDone bool
}

type PurchaseResult struct {
	TxHash  id.TxHash
	Block   uint64
	Price   id.Wei
	Listing listingmodels.Listing
}

type TransferResult struct {
	TxHash id.TxHash
	Block  uint64
	Owner  recordmodels.Owner
}

// HistoryEntry is one ownership change of a land.
type HistoryEntry struct {
	Kind   registrymodels.EventKind
	From   string
	To     id.Address
	Price  id.Wei
	TxHash id.TxHash
	Block  uint64
}

// LandView merges the chain record with both off-chain stores for one land.
// Listing and Govt are nil when the respective store has no row.
type LandView struct {
	Record       registrymodels.LandRecord
	ChainListing registrymodels.ChainListing
	Listing      *listingmodels.Listing
	Govt         *recordmodels.GovtRecord
}

// PortfolioEntry is one land of a citizen's dashboard.
type PortfolioEntry struct {
	Record        recordmodels.GovtRecord
	Minted        bool
	ListingStatus listingmodels.Status
}
