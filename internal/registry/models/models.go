// Package models holds the chain-side view of identities, lands and listings
// as read from the registry contract.
package models

import (
	"time"

	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

// LandType mirrors the contract's land type enum.
type LandType uint8

const (
	LandTypeResidential  LandType = 0
	LandTypeCommercial   LandType = 1
	LandTypeAgricultural LandType = 2
)

func (t LandType) String() string {
	switch t {
	case LandTypeResidential:
		return "residential"
	case LandTypeCommercial:
		return "commercial"
	case LandTypeAgricultural:
		return "agricultural"
	default:
		return "unknown"
	}
}

// ParseLandType accepts the contract enum value.
func ParseLandType(v uint8) (LandType, error) {
	if v > uint8(LandTypeAgricultural) {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "land type must be 0, 1 or 2")
	}
	return LandType(v), nil
}

// LandStatus mirrors the contract's land status enum.
type LandStatus uint8

const (
	LandStatusActive             LandStatus = 0
	LandStatusPendingInheritance LandStatus = 1
	LandStatusDisputed           LandStatus = 2
)

func (s LandStatus) String() string {
	switch s {
	case LandStatusActive:
		return "active"
	case LandStatusPendingInheritance:
		return "pending_inheritance"
	case LandStatusDisputed:
		return "disputed"
	default:
		return "unknown"
	}
}

// Identity is the on-chain binding between a wallet and a legal id.
type Identity struct {
	Address    id.Address
	Name       string
	LegalID    id.LegalID
	Registered bool
}

// Verified reports whether the identity may act on land: registered with a non-empty legal id.
func (i Identity) Verified() bool {
	return i.Registered && !i.LegalID.IsNil()
}

// LandRecord is the contract's record for a minted parcel. An unminted land
// reads back with a zero owner.
type LandRecord struct {
	Land         id.LandID
	Owner        id.Address
	LegalID      id.LegalID
	DocumentHash string
	LandType     LandType
	Status       LandStatus
	VerifiedAt   time.Time
}

// Minted reports whether the land exists on-chain.
func (r LandRecord) Minted() bool {
	return !r.Owner.IsZero()
}

// ChainListing is the contract's sale listing. Price is authoritative for payment.
type ChainListing struct {
	Land     id.LandID
	Price    id.Wei
	Seller   id.Address
	Active   bool
	Deadline time.Time
}

// EventKind selects which registry log a scan reads.
type EventKind string

const (
	EventMint     EventKind = "MINT"
	EventTransfer EventKind = "TRANSFER"
)

// ChainEvent is one decoded registry log.
type ChainEvent struct {
	Kind     EventKind
	Land     id.LandID
	From     id.Address
	To       id.Address
	Price    id.Wei
	LandType LandType
	TxHash   id.TxHash
	Block    uint64
	LogIndex uint
}

// MintRequest carries the inputs of a verification mint.
type MintRequest struct {
	Owner        id.Address
	Land         id.LandID
	DocumentHash string
	LandType     LandType
}

// FinalityStatus is the outcome of waiting on a submitted transaction.
type FinalityStatus string

const (
	FinalityConfirmed FinalityStatus = "confirmed"
	FinalityReverted  FinalityStatus = "reverted"
	FinalityTimedOut  FinalityStatus = "timed_out"
)

// Finality reports how a transaction settled and in which block.
type Finality struct {
	Status FinalityStatus
	Block  uint64
}
