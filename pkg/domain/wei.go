package domain

import (
	"math/big"
	"strings"

	dErrors "landledger/pkg/domain-errors"
)

// WeiDecimals is the number of fractional digits between one coin and its smallest unit.
const WeiDecimals = 18

var weiPerCoin = new(big.Int).Exp(big.NewInt(10), big.NewInt(WeiDecimals), nil)

// Wei is an exact smallest-unit amount. The zero value is zero.
// Monetary values never cross the chain or store boundary as floating point.
type Wei struct {
	v *big.Int
}

// NewWei copies a big integer into a Wei.
func NewWei(v *big.Int) Wei {
	if v == nil {
		return Wei{}
	}
	return Wei{v: new(big.Int).Set(v)}
}

// WeiFromInt64 is a convenience for tests and constants.
func WeiFromInt64(v int64) Wei {
	return Wei{v: big.NewInt(v)}
}

// ParseWei parses a base-10 integer string of smallest units.
func ParseWei(s string) (Wei, error) {
	s = strings.TrimSpace(s)
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be an integer number of smallest units")
	}
	if v.Sign() < 0 {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount must not be negative")
	}
	return Wei{v: v}, nil
}

// ParseEther converts a decimal coin amount such as "1.5" into Wei exactly.
// Exponents, signs and more than 18 fractional digits are rejected rather
// than rounded.
func ParseEther(s string) (Wei, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount is not a decimal number")
	}
	if !allDigits(whole) || !allDigits(frac) {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount is not a decimal number")
	}
	if len(frac) > WeiDecimals {
		return Wei{}, dErrors.New(dErrors.CodeInvalidInput, "amount has more than 18 fractional digits")
	}
	digits := whole + frac + strings.Repeat("0", WeiDecimals-len(frac))
	v, ok := new(big.Int).SetString(strings.TrimLeft(digits, "0"), 10)
	if !ok {
		// all zeros trims to the empty string
		v = new(big.Int)
	}
	return Wei{v: v}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Big returns a copy of the underlying integer.
func (w Wei) Big() *big.Int {
	if w.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(w.v)
}

func (w Wei) Sign() int {
	if w.v == nil {
		return 0
	}
	return w.v.Sign()
}

func (w Wei) IsZero() bool { return w.Sign() == 0 }

// Cmp compares two amounts exactly.
func (w Wei) Cmp(other Wei) int {
	return w.Big().Cmp(other.Big())
}

func (w Wei) Equal(other Wei) bool { return w.Cmp(other) == 0 }

// String renders the smallest-unit integer.
func (w Wei) String() string {
	return w.Big().String()
}

// Ether renders the amount as a decimal coin string without trailing zeros.
func (w Wei) Ether() string {
	q, r := new(big.Int).QuoRem(w.Big(), weiPerCoin, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := r.String()
	frac = strings.Repeat("0", WeiDecimals-len(frac)) + frac
	return q.String() + "." + strings.TrimRight(frac, "0")
}
