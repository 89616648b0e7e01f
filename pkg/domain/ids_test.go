package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landledger/pkg/domain-errors"
)

// TestParseAddress_Invariants validates the parsing invariant:
// "addresses are 0x-prefixed 20-byte hex and compare case-insensitively"
func TestParseAddress_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAddress("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing prefix", func(t *testing.T) {
		_, err := ParseAddress("ce675683907eb07c1f348d43792350ea8923a9b0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("normalizes checksum casing", func(t *testing.T) {
		a, err := ParseAddress("0xce675683907eB07c1F348D43792350EA8923A9b0")
		require.NoError(t, err)
		assert.Equal(t, Address("0xce675683907eb07c1f348d43792350ea8923a9b0"), a)
		assert.True(t, a.Equal(Address("0xCE675683907EB07C1F348D43792350EA8923A9B0")))
	})

	t.Run("zero address is the null owner", func(t *testing.T) {
		a, err := ParseAddress("0x0000000000000000000000000000000000000000")
		require.NoError(t, err)
		assert.True(t, a.IsZero())
		assert.True(t, Address("").IsZero())
	})
}

func TestParseLandID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Null byte injection", "Plot-1\x00", true},
		{"Oversized input", strings.Repeat("a", 65), true},
		{"Plain plot number", "Plot-101", false},
		{"Surrounding whitespace trimmed", "  Plot-1 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLandID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseLegalID(t *testing.T) {
	id, err := ParseLegalID(" 35202-1234567-1 ")
	require.NoError(t, err)
	assert.Equal(t, LegalID("35202-1234567-1"), id)

	_, err = ParseLegalID("12a45")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseLegalID(strings.Repeat("1", 21))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParseTxHash(t *testing.T) {
	valid := "0x" + strings.Repeat("Ab", 32)
	h, err := ParseTxHash(valid)
	require.NoError(t, err)
	assert.Equal(t, TxHash(strings.ToLower(valid)), h)

	_, err = ParseTxHash("0x1234")
	assert.Error(t, err)
	_, err = ParseTxHash("0x" + strings.Repeat("zz", 32))
	assert.Error(t, err)
}
