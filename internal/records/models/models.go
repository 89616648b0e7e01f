// Package models holds the government records side of the ledger: parcels as
// registered on paper, the owner directory and the citizen census.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "landledger/pkg/domain"
)

// GovtRecord is the authoritative off-chain land record. OwnerLegalID is the
// verification anchor; OwnerID points at the owner directory once a title
// transfer has been recorded.
type GovtRecord struct {
	Land         id.LandID
	OwnerLegalID id.LegalID
	OwnerID      uuid.UUID
	Location     string
	AreaSqFt     int64
	UpdatedAt    time.Time
}

// HeldBy reports whether the record names legalID as owner.
func (r GovtRecord) HeldBy(legalID id.LegalID) bool {
	return !legalID.IsNil() && r.OwnerLegalID == legalID
}

// Owner is an owner directory entry, the registry's list of wallets allowed to hold title.
type Owner struct {
	ID      uuid.UUID
	Name    string
	Wallet  id.Address
	LegalID id.LegalID
}

// Citizen is a census entry used to validate identity registration.
type Citizen struct {
	LegalID  id.LegalID
	FullName string
}

// NameMatches compares names case-insensitively, ignoring surrounding whitespace.
func (c Citizen) NameMatches(name string) bool {
	return strings.EqualFold(strings.TrimSpace(c.FullName), strings.TrimSpace(name))
}
