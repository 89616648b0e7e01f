// Package models defines marketplace listings and their lifecycle.
package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

// MaxPhotos bounds the media references a listing may carry.
const MaxPhotos = 3

// Status is the off-chain listing state.
//
//	listed --lock--> on_chain --buy--> sold
//	   ^                |
//	   +-----cancel-----+
//
// A title transfer outside the marketplace moves an unsold listing to
// withdrawn. Sold and withdrawn are terminal.
type Status string

const (
	StatusListed    Status = "listed"
	StatusOnChain   Status = "on_chain"
	StatusSold      Status = "sold"
	StatusWithdrawn Status = "withdrawn"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusListed, StatusOnChain, StatusSold, StatusWithdrawn:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be one of listed, on_chain, sold, withdrawn")
	}
}

func (s Status) String() string { return string(s) }

var transitions = map[Status][]Status{
	StatusListed:  {StatusOnChain, StatusWithdrawn},
	StatusOnChain: {StatusListed, StatusSold, StatusWithdrawn},
}

// CanTransition reports whether to is reachable from s in one step.
func (s Status) CanTransition(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// Listing is the marketplace record for a land offered for sale. Prices are
// exact smallest-unit amounts; FinalPrice is zero until the price is locked.
type Listing struct {
	ID          uuid.UUID
	Land        id.LandID
	Seller      id.Address
	LandType    string
	Description string
	Location    string
	Contact     string
	PriceMin    id.Wei
	PriceMax    id.Wei
	FinalPrice  id.Wei
	Photos      []string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the fields a seller supplies when creating a listing.
func (l Listing) Validate() error {
	if l.Land.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "land id is required")
	}
	if l.Seller.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "seller wallet is required")
	}
	if l.PriceMin.Sign() <= 0 || l.PriceMax.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "price range must be positive")
	}
	if l.PriceMin.Cmp(l.PriceMax) > 0 {
		return dErrors.New(dErrors.CodeValidation, "minimum price must not exceed maximum price")
	}
	if len(l.Photos) > MaxPhotos {
		return dErrors.New(dErrors.CodeValidation, "at most 3 photos may be attached")
	}
	if strings.TrimSpace(l.Contact) == "" {
		return dErrors.New(dErrors.CodeValidation, "contact number is required")
	}
	return nil
}

// InRange reports whether price falls inside the advertised bounds.
func (l Listing) InRange(price id.Wei) bool {
	return price.Cmp(l.PriceMin) >= 0 && price.Cmp(l.PriceMax) <= 0
}

// Open reports whether the listing still blocks a new one for the same land.
func (l Listing) Open() bool {
	return l.Status != StatusSold && l.Status != StatusWithdrawn
}
