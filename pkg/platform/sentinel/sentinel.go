package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the chain facade and the
// lease table return these (optionally wrapped) so services can translate them
// into domain errors.
//
// These describe the state of a resource, not the validity of a request:
// - ErrNotFound: row or chain entry does not exist
// - ErrConflict: a unique row already exists (e.g. an unsold listing for a land)
// - ErrInvalidState: entity is in the wrong status for the requested transition
// - ErrUnavailable: backing store or RPC endpoint temporarily unreachable
// - ErrHeld: a lease is held by another in-flight workflow
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrHeld         = errors.New("held")
)
