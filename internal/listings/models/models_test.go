package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

func validListing() Listing {
	return Listing{
		Land:     "Plot-1",
		Seller:   "0x00000000000000000000000000000000000000a1",
		PriceMin: id.WeiFromInt64(100),
		PriceMax: id.WeiFromInt64(200),
		Contact:  "+92 300 0000000",
		Photos:   []string{"a.jpg"},
	}
}

func TestStatus_CanTransition(t *testing.T) {
	assert.True(t, StatusListed.CanTransition(StatusOnChain))
	assert.True(t, StatusOnChain.CanTransition(StatusSold))
	assert.True(t, StatusOnChain.CanTransition(StatusListed))

	assert.False(t, StatusListed.CanTransition(StatusSold), "a listing must be locked before it sells")
	assert.False(t, StatusSold.CanTransition(StatusListed))
	assert.False(t, StatusSold.CanTransition(StatusOnChain))

	assert.True(t, StatusListed.CanTransition(StatusWithdrawn))
	assert.True(t, StatusOnChain.CanTransition(StatusWithdrawn))
	assert.False(t, StatusWithdrawn.CanTransition(StatusListed))
	assert.False(t, StatusSold.CanTransition(StatusWithdrawn))
}

func TestListing_Open(t *testing.T) {
	for st, open := range map[Status]bool{
		StatusListed:    true,
		StatusOnChain:   true,
		StatusSold:      false,
		StatusWithdrawn: false,
	} {
		assert.Equal(t, open, Listing{Status: st}.Open(), st.String())
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" ON_CHAIN ")
	require.NoError(t, err)
	assert.Equal(t, StatusOnChain, st)

	st, err = ParseStatus("withdrawn")
	require.NoError(t, err)
	assert.Equal(t, StatusWithdrawn, st)

	_, err = ParseStatus("archived")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestListing_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Listing)
		msg    string
	}{
		{"ok", func(*Listing) {}, ""},
		{"missing land", func(l *Listing) { l.Land = "" }, "land id is required"},
		{"zero min", func(l *Listing) { l.PriceMin = id.Wei{} }, "price range must be positive"},
		{"inverted range", func(l *Listing) { l.PriceMin = id.WeiFromInt64(300) }, "minimum price must not exceed maximum price"},
		{"too many photos", func(l *Listing) { l.Photos = []string{"1", "2", "3", "4"} }, "at most 3 photos may be attached"},
		{"blank contact", func(l *Listing) { l.Contact = "  " }, "contact number is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validListing()
			tt.mutate(&l)
			err := l.Validate()
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestListing_InRange(t *testing.T) {
	l := validListing()
	assert.True(t, l.InRange(id.WeiFromInt64(100)))
	assert.True(t, l.InRange(id.WeiFromInt64(200)))
	assert.False(t, l.InRange(id.WeiFromInt64(201)))
	assert.False(t, l.InRange(id.WeiFromInt64(99)))
}
