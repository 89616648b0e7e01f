package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther_IsExact(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.5", "1500000000000000000"},
		{"0.0001", "100000000000000"},
		{"1", "1000000000000000000"},
		{".5", "500000000000000000"},
		{"2.", "2000000000000000000"},
		{"0", "0"},
		{"0.000000000000000001", "1"},
		{"0.1", "100000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w, err := ParseEther(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.String())
		})
	}
}

func TestParseEther_Rejects(t *testing.T) {
	for _, input := range []string{"", ".", "-1", "1e18", "1.2.3", "abc", "0.0000000000000000001", "+1"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseEther(input)
			assert.Error(t, err)
		})
	}
}

func TestWei_OneUnitDifferenceIsNotEqual(t *testing.T) {
	p, err := ParseEther("1.5")
	require.NoError(t, err)
	q := NewWei(new(big.Int).Add(p.Big(), big.NewInt(1)))

	assert.False(t, p.Equal(q))
	assert.Equal(t, -1, p.Cmp(q))
	assert.True(t, p.Equal(NewWei(p.Big())))
}

func TestWei_Ether(t *testing.T) {
	w, err := ParseWei("1500000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1.5", w.Ether())
	assert.Equal(t, "0", Wei{}.Ether())
	assert.Equal(t, "0.000000000000000001", WeiFromInt64(1).Ether())
}

func TestParseWei_RejectsNegative(t *testing.T) {
	_, err := ParseWei("-5")
	assert.Error(t, err)
	_, err = ParseWei("12.5")
	assert.Error(t, err)
}
