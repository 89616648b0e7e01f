//go:build integration

package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"landledger/internal/ledgersync/journal"
	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/testutil/containers"
)

type RedisJournalSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	journal *journal.Redis
}

func TestRedisJournalSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisJournalSuite))
}

func (s *RedisJournalSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.journal = journal.NewRedis(s.redis.Client)
}

func (s *RedisJournalSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisJournalSuite) TestRoundTripAndOpenIndex() {
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	e := models.JournalEntry{
		ID:           uuid.New(),
		Kind:         models.WorkflowPurchase,
		Land:         "Plot-1",
		TxHash:       "0xabc",
		State:        models.EntryPending,
		FailedStores: []models.Store{models.StoreRecords, models.StoreListings},
		Effect:       models.Effect{LegalID: "12345", Price: "1500000000000000000"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	s.Require().NoError(s.journal.Save(ctx, e))

	got, err := s.journal.Get(ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.Effect, got.Effect)
	s.Equal(e.FailedStores, got.FailedStores)
	s.True(created.Equal(got.CreatedAt))

	open, err := s.journal.ListOpen(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(open, 1)

	e.State = models.EntryResolved
	s.Require().NoError(s.journal.Save(ctx, e))
	open, err = s.journal.ListOpen(ctx, 10)
	s.Require().NoError(err)
	s.Empty(open)
}

func (s *RedisJournalSuite) TestMissingEntry() {
	_, err := s.journal.Get(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
