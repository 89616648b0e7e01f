package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

func TestIdentity_Verified(t *testing.T) {
	assert.False(t, Identity{}.Verified())
	assert.False(t, Identity{Registered: true}.Verified(), "registered without legal id is not verified")
	assert.True(t, Identity{Registered: true, LegalID: "35202-1"}.Verified())
}

func TestLandRecord_Minted(t *testing.T) {
	assert.False(t, LandRecord{}.Minted())
	assert.False(t, LandRecord{Owner: id.ZeroAddress}.Minted())
	assert.True(t, LandRecord{Owner: "0x00000000000000000000000000000000000000aa"}.Minted())
}

func TestParseLandType(t *testing.T) {
	lt, err := ParseLandType(2)
	assert.NoError(t, err)
	assert.Equal(t, LandTypeAgricultural, lt)
	assert.Equal(t, "agricultural", lt.String())

	_, err = ParseLandType(3)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
