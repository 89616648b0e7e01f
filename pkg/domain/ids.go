package domain

import (
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"

	dErrors "landledger/pkg/domain-errors"
)

const (
	maxLandIDLength  = 64
	maxLegalIDLength = 20
)

// LandID identifies a parcel in both the on-chain registry and the
// government records store (the plot number in the paper world).
type LandID string

// ParseLandID trims and validates a land identifier.
func ParseLandID(s string) (LandID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "land id is required")
	}
	if len(s) > maxLandIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "land id must be at most 64 characters")
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || unicode.IsControl(r) || !unicode.IsPrint(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "land id contains invalid characters")
		}
	}
	return LandID(s), nil
}

func (l LandID) String() string { return string(l) }

// IsNil reports whether the identifier is empty.
func (l LandID) IsNil() bool { return l == "" }

// Address is an EVM wallet address held in lowercase hex so that comparisons
// are case-insensitive regardless of checksum casing supplied by wallets.
type Address string

// ZeroAddress is the null owner reported for unminted lands.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address must be 0x-prefixed")
	}
	if !common.IsHexAddress(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address is not a valid hex address")
	}
	return AddressFromCommon(common.HexToAddress(s)), nil
}

// AddressFromCommon converts a go-ethereum address.
func AddressFromCommon(a common.Address) Address {
	return Address(strings.ToLower(a.Hex()))
}

// Common converts to a go-ethereum address.
func (a Address) Common() common.Address {
	return common.HexToAddress(string(a))
}

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is empty or the null address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// Equal compares two addresses case-insensitively.
func (a Address) Equal(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

// LegalID is the national identity number that binds a wallet to a citizen.
type LegalID string

// ParseLegalID accepts digits and dashes only.
func ParseLegalID(s string) (LegalID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "legal id is required")
	}
	if len(s) > maxLegalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "legal id must be at most 20 characters")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "legal id may only contain digits and dashes")
		}
	}
	return LegalID(s), nil
}

func (l LegalID) String() string { return string(l) }

func (l LegalID) IsNil() bool { return l == "" }

// TxHash identifies a submitted chain transaction.
type TxHash string

// ParseTxHash validates a 0x-prefixed 32-byte hex hash.
func ParseTxHash(s string) (TxHash, error) {
	s = strings.TrimSpace(s)
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "transaction hash must be 0x followed by 64 hex characters")
	}
	for _, r := range s[2:] {
		if !isHexDigit(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "transaction hash must be hex encoded")
		}
	}
	return TxHash(strings.ToLower(s)), nil
}

// TxHashFromCommon converts a go-ethereum hash.
func TxHashFromCommon(h common.Hash) TxHash {
	return TxHash(strings.ToLower(h.Hex()))
}

func (h TxHash) Common() common.Hash {
	return common.HexToHash(string(h))
}

func (h TxHash) String() string { return string(h) }

func (h TxHash) IsNil() bool { return h == "" }

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
