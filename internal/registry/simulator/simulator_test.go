package simulator

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landledger/internal/registry/models"
	id "landledger/pkg/domain"
	dErrors "landledger/pkg/domain-errors"
)

const (
	admin  id.Address = "0x00000000000000000000000000000000000000ad"
	seller id.Address = "0x00000000000000000000000000000000000000a1"
	buyer  id.Address = "0x00000000000000000000000000000000000000b2"
)

type SimulatorSuite struct {
	suite.Suite
	ctx context.Context
	reg *Registry
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorSuite))
}

func (s *SimulatorSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = New(admin)
	s.reg.SeedIdentity(seller, "Seller", "11111-1111111-1")
	s.reg.SeedIdentity(buyer, "Buyer", "22222-2222222-2")
}

func (s *SimulatorSuite) mustConfirm(tx id.TxHash) models.Finality {
	f, err := s.reg.AwaitFinality(s.ctx, tx, time.Second)
	s.Require().NoError(err)
	return f
}

func (s *SimulatorSuite) TestMintAppliesOnlyAtFinality() {
	tx, err := s.reg.MintLand(s.ctx, models.MintRequest{Owner: seller, Land: "Plot-1", DocumentHash: "QmAutoVerified_Plot-1"})
	s.Require().NoError(err)

	rec, _ := s.reg.LandRecord(s.ctx, "Plot-1")
	s.False(rec.Minted(), "pending mint is not visible")

	s.Equal(models.FinalityConfirmed, s.mustConfirm(tx).Status)
	rec, _ = s.reg.LandRecord(s.ctx, "Plot-1")
	s.True(rec.Minted())
	s.Equal(id.LegalID("11111-1111111-1"), rec.LegalID)

	mints, _ := s.reg.Events(s.ctx, models.EventMint)
	s.Require().Len(mints, 1)
	s.Equal(tx, mints[0].TxHash)
}

func (s *SimulatorSuite) TestMintRejectsAlreadyMinted() {
	s.reg.SeedLand(seller, "Plot-1", models.LandTypeResidential)
	_, err := s.reg.MintLand(s.ctx, models.MintRequest{Owner: seller, Land: "Plot-1"})
	s.True(dErrors.HasCode(err, dErrors.CodeChainRejected))
	s.Empty(s.reg.Submitted(), "seed does not submit and the rejected mint is not broadcast")
}

func (s *SimulatorSuite) TestBuyRules() {
	s.reg.SeedLand(seller, "Plot-1", models.LandTypeResidential)
	price, _ := id.ParseEther("1.5")
	tx, err := s.reg.ListForSale(s.ctx, seller, "Plot-1", price)
	s.Require().NoError(err)
	s.mustConfirm(tx)

	s.Run("exact value required", func() {
		_, err := s.reg.Buy(s.ctx, buyer, "Plot-1", id.NewWei(new(big.Int).Add(price.Big(), big.NewInt(1))))
		s.True(dErrors.HasCode(err, dErrors.CodeChainRejected))
	})

	s.Run("seller cannot buy", func() {
		_, err := s.reg.Buy(s.ctx, "0x00000000000000000000000000000000000000A1", "Plot-1", price)
		s.True(dErrors.HasCode(err, dErrors.CodeChainRejected))
	})

	s.Run("sale moves title and closes listing", func() {
		tx, err := s.reg.Buy(s.ctx, buyer, "Plot-1", price)
		s.Require().NoError(err)
		s.Equal(models.FinalityConfirmed, s.mustConfirm(tx).Status)

		rec, _ := s.reg.LandRecord(s.ctx, "Plot-1")
		s.True(rec.Owner.Equal(buyer))
		s.Equal(id.LegalID("22222-2222222-2"), rec.LegalID)
		listing, _ := s.reg.Listing(s.ctx, "Plot-1")
		s.False(listing.Active)

		transfers, _ := s.reg.Events(s.ctx, models.EventTransfer)
		s.Require().Len(transfers, 1)
		s.True(transfers[0].Price.Equal(price))
	})
}

func (s *SimulatorSuite) TestScriptedOutcomes() {
	s.reg.SeedLand(seller, "Plot-1", models.LandTypeResidential)

	s.Run("revert leaves state unchanged", func() {
		s.reg.ScriptFinality(Revert)
		tx, err := s.reg.ListForSale(s.ctx, seller, "Plot-1", id.WeiFromInt64(10))
		s.Require().NoError(err)
		s.Equal(models.FinalityReverted, s.mustConfirm(tx).Status)
		listing, _ := s.reg.Listing(s.ctx, "Plot-1")
		s.False(listing.Active)
	})

	s.Run("timeout then later confirmation", func() {
		s.reg.ScriptFinality(Timeout)
		tx, err := s.reg.ListForSale(s.ctx, seller, "Plot-1", id.WeiFromInt64(10))
		s.Require().NoError(err)
		s.Equal(models.FinalityTimedOut, s.mustConfirm(tx).Status)

		f := s.mustConfirm(tx)
		s.Equal(models.FinalityConfirmed, f.Status)
		s.Equal(f, s.mustConfirm(tx), "settled outcome is stable")
	})

	s.Run("inclusion re-checks rules", func() {
		tx1, err := s.reg.Transfer(s.ctx, seller, "Plot-1", buyer, id.WeiFromInt64(0))
		s.Require().NoError(err)
		tx2, err := s.reg.CancelListing(s.ctx, seller, "Plot-1")
		s.Require().NoError(err)

		s.Equal(models.FinalityConfirmed, s.mustConfirm(tx1).Status)
		s.Equal(models.FinalityReverted, s.mustConfirm(tx2).Status, "transfer already closed the listing")
	})
}

func (s *SimulatorSuite) TestFailNext() {
	boom := errors.New("rpc down")
	s.reg.FailNext("land_record", boom)
	_, err := s.reg.LandRecord(s.ctx, "Plot-1")
	s.ErrorIs(err, boom)
	_, err = s.reg.LandRecord(s.ctx, "Plot-1")
	s.NoError(err)
}
