package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
)

// landRecordTuple matches the getLandRecord output struct field for field.
type landRecordTuple struct {
	CurrentOwner common.Address
	Cnic         string
	LandId       string
	IpfsHash     string
	LandType     uint8
	Status       uint8
	VerifiedAt   *big.Int
}

func (c *Client) call(ctx context.Context, operation string, out *[]interface{}, method string, args ...interface{}) error {
	return c.do(ctx, operation, func() error {
		return c.contract.Call(&bind.CallOpts{Context: ctx}, out, method, args...)
	})
}

// Identity reads users(address). Unregistered wallets read back as the zero identity.
func (c *Client) Identity(ctx context.Context, addr id.Address) (models.Identity, error) {
	var out []interface{}
	if err := c.call(ctx, "users", &out, methodUsers, addr.Common()); err != nil {
		return models.Identity{}, err
	}
	name := *abi.ConvertType(out[0], new(string)).(*string)
	legal := *abi.ConvertType(out[1], new(string)).(*string)
	registered := *abi.ConvertType(out[2], new(bool)).(*bool)
	return models.Identity{
		Address:    addr,
		Name:       name,
		LegalID:    id.LegalID(legal),
		Registered: registered,
	}, nil
}

// LandRecord reads getLandRecord(landId). Unminted lands report a zero owner.
func (c *Client) LandRecord(ctx context.Context, land id.LandID) (models.LandRecord, error) {
	var out []interface{}
	if err := c.call(ctx, "get_land_record", &out, methodGetLandRecord, land.String()); err != nil {
		return models.LandRecord{}, err
	}
	rec := *abi.ConvertType(out[0], new(landRecordTuple)).(*landRecordTuple)
	record := models.LandRecord{
		Land:         land,
		Owner:        id.AddressFromCommon(rec.CurrentOwner),
		LegalID:      id.LegalID(rec.Cnic),
		DocumentHash: rec.IpfsHash,
		LandType:     models.LandType(rec.LandType),
		Status:       models.LandStatus(rec.Status),
	}
	if rec.VerifiedAt != nil && rec.VerifiedAt.Sign() > 0 {
		record.VerifiedAt = time.Unix(rec.VerifiedAt.Int64(), 0).UTC()
	}
	return record, nil
}

// Listing reads landListings(landId).
func (c *Client) Listing(ctx context.Context, land id.LandID) (models.ChainListing, error) {
	var out []interface{}
	if err := c.call(ctx, "land_listings", &out, methodLandListings, land.String()); err != nil {
		return models.ChainListing{}, err
	}
	price := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	seller := *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	active := *abi.ConvertType(out[2], new(bool)).(*bool)
	deadline := *abi.ConvertType(out[3], new(*big.Int)).(**big.Int)

	listing := models.ChainListing{
		Land:   land,
		Price:  id.NewWei(price),
		Seller: id.AddressFromCommon(seller),
		Active: active,
	}
	if deadline != nil && deadline.Sign() > 0 {
		listing.Deadline = time.Unix(deadline.Int64(), 0).UTC()
	}
	return listing, nil
}
