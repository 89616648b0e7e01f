package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers ownership-changing events with legal significance
	// (mint, sale, title transfer). These require long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected or suspicious actions: unregistered
	// wallets, non-owners attempting writes, seller mismatches.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers workflow bookkeeping and reconciliation.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from workflows to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	LandID    string        `json:"land_id,omitempty"`
	// Wallet is the acting wallet; Counterparty the buyer, new owner or listed seller.
	Wallet       string `json:"wallet,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
	TxHash       string `json:"tx_hash,omitempty"`
	Decision     string `json:"decision,omitempty"`
	Reason       string `json:"reason,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	ClientIP     string `json:"client_ip,omitempty"`
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can be queried back (memory).
type Lister interface {
	ListByLand(ctx context.Context, landID string) ([]Event, error)
}

type AuditEvent string

const (
	// Verification
	EventLandMinted       AuditEvent = "land_minted"
	EventMintRejected     AuditEvent = "mint_rejected"
	EventIdentityRegister AuditEvent = "identity_registered"

	// Marketplace
	EventListingCreated   AuditEvent = "listing_created"
	EventPriceLocked      AuditEvent = "price_locked"
	EventListingCancelled AuditEvent = "listing_cancelled"
	EventLandPurchased    AuditEvent = "land_purchased"
	EventSellerMismatch   AuditEvent = "seller_mismatch"

	// Title
	EventTitleTransferred AuditEvent = "title_transferred"

	// Authorization failures surfaced by guards
	EventWorkflowDenied AuditEvent = "workflow_denied"

	// Reconciliation
	EventReconciliationPending  AuditEvent = "reconciliation_pending"
	EventReconciliationResolved AuditEvent = "reconciliation_resolved"
	EventReconciliationAlert    AuditEvent = "reconciliation_alert"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventLandMinted:       CategoryCompliance,
	EventIdentityRegister: CategoryCompliance,
	EventLandPurchased:    CategoryCompliance,
	EventTitleTransferred: CategoryCompliance,

	EventMintRejected:        CategorySecurity,
	EventSellerMismatch:      CategorySecurity,
	EventWorkflowDenied:      CategorySecurity,
	EventReconciliationAlert: CategorySecurity,

	EventListingCreated:         CategoryOperations,
	EventPriceLocked:            CategoryOperations,
	EventListingCancelled:       CategoryOperations,
	EventReconciliationPending:  CategoryOperations,
	EventReconciliationResolved: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
