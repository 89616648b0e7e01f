// Package domainerrors carries coded errors across service boundaries.
//
// Services return *Error values so transports can translate them into status
// codes without knowing which store or chain call produced them. Stores keep
// returning sentinel facts (see pkg/platform/sentinel) that services translate.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure. The set mirrors the workflow error taxonomy:
// input shape, cross-store authorization, idempotent completion, chain
// rejection, finality ambiguity and post-finality reconciliation.
type Code string

const (
	CodeValidation            Code = "validation_error"
	CodeBadRequest            Code = "bad_request"
	CodeInvalidInput          Code = "invalid_input"
	CodeUnauthorized          Code = "unauthorized"
	CodeForbidden             Code = "forbidden"
	CodePriceMismatch         Code = "price_mismatch"
	CodeNotFound              Code = "not_found"
	CodeConflict              Code = "conflict"
	CodeAlreadyDone           Code = "already_done"
	CodeChainRejected         Code = "chain_rejected"
	CodeFinalityTimeout       Code = "finality_timeout"
	CodeReconciliationPending Code = "reconciliation_pending"
	CodeTimeout               Code = "timeout"
	CodeInvariantViolation    Code = "invariant_violation"
	CodeInternal              Code = "internal_error"
)

// Error is a coded domain error. Details carry machine-readable context such
// as transaction hashes or both sides of a price comparison.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key/value pair and returns the same error for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a coded error around a cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// As extracts the outermost *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the outermost domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error carries code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	de, ok := As(err)
	return ok && de.Code == code
}

// Is reports whether err is a domain error with the given code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		if de, ok := err.(*Error); ok && de.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ToHTTPStatus maps a code onto the service endpoint's status contract.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodePriceMismatch:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyDone:
		return http.StatusConflict
	case CodeReconciliationPending:
		return http.StatusAccepted
	case CodeChainRejected:
		return http.StatusBadGateway
	case CodeFinalityTimeout, CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
