//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"landledger/internal/platform/postgres"
	"landledger/internal/records/models"
	"landledger/internal/records/store"
	id "landledger/pkg/domain"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Open(s.T(), postgres.DriverPGX))
}

func (s *PostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "govt_land_records", "owners", "govt_citizens"))
	s.Require().NoError(s.store.SaveRecord(ctx, models.GovtRecord{Land: "Plot-1", OwnerLegalID: "35202-1", Location: "Lahore", AreaSqFt: 2250}))
}

func (s *PostgresSuite) TestFindByLandAndLegalID() {
	ctx := context.Background()

	rec, err := s.store.FindByLandAndLegalID(ctx, "Plot-1", "35202-1")
	s.Require().NoError(err)
	s.Equal(int64(2250), rec.AreaSqFt)
	s.Equal(uuid.Nil, rec.OwnerID)

	_, err = s.store.FindByLandAndLegalID(ctx, "Plot-1", "35202-2")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestOwnerLookupIsCaseInsensitive() {
	ctx := context.Background()
	saved, err := s.store.SaveOwner(ctx, models.Owner{Name: "Bilal", Wallet: "0xAbC0000000000000000000000000000000000001"})
	s.Require().NoError(err)

	found, err := s.store.FindByWallet(ctx, "0xABC0000000000000000000000000000000000001")
	s.Require().NoError(err)
	s.Equal(saved.ID, found.ID)
	s.Equal(id.Address("0xabc0000000000000000000000000000000000001"), found.Wallet)
}

func (s *PostgresSuite) TestAssignOwnerThenReassign() {
	ctx := context.Background()
	owner, err := s.store.SaveOwner(ctx, models.Owner{Name: "Sana", Wallet: "0x00000000000000000000000000000000000000b2", LegalID: "61101-7"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.AssignOwner(ctx, "Plot-1", owner.ID, owner.LegalID))
	rec, err := s.store.FindByLand(ctx, "Plot-1")
	s.Require().NoError(err)
	s.Equal(owner.ID, rec.OwnerID)
	s.Equal(id.LegalID("61101-7"), rec.OwnerLegalID)

	s.Require().NoError(s.store.ReassignLegalID(ctx, "Plot-1", "42101-5"))
	s.Require().NoError(s.store.ReassignLegalID(ctx, "Plot-1", "42101-5"))
	rec, err = s.store.FindByLand(ctx, "Plot-1")
	s.Require().NoError(err)
	s.Equal(id.LegalID("42101-5"), rec.OwnerLegalID)

	err = s.store.ReassignLegalID(ctx, "Plot-404", "42101-5")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Concurrent reassignments settle on one of the written values.
func (s *PostgresSuite) TestConcurrentReassignIsLastWriteWins() {
	ctx := context.Background()
	values := []id.LegalID{"11111-1", "22222-2", "33333-3", "44444-4"}

	var wg sync.WaitGroup
	for _, v := range values {
		wg.Add(1)
		go func(v id.LegalID) {
			defer wg.Done()
			s.NoError(s.store.ReassignLegalID(ctx, "Plot-1", v))
		}(v)
	}
	wg.Wait()

	rec, err := s.store.FindByLand(ctx, "Plot-1")
	s.Require().NoError(err)
	s.Contains(values, rec.OwnerLegalID)
}

func (s *PostgresSuite) TestCitizenCensus() {
	ctx := context.Background()
	s.Require().NoError(s.store.SaveCitizen(ctx, models.Citizen{LegalID: "35202-1", FullName: "Ayesha Khan"}))

	c, err := s.store.FindCitizen(ctx, "35202-1")
	s.Require().NoError(err)
	s.True(c.NameMatches("ayesha khan"))

	_, err = s.store.FindCitizen(ctx, "99999-9")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
