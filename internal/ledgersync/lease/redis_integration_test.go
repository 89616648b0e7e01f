//go:build integration

package lease_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landledger/internal/ledgersync/lease"
	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
	"landledger/pkg/testutil/containers"
)

type RedisLeaseSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	leases *lease.Redis
}

func TestRedisLeaseSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLeaseSuite))
}

func (s *RedisLeaseSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.leases = lease.NewRedis(s.redis.Client)
}

func (s *RedisLeaseSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLeaseSuite) TestHeldUntilReleased() {
	ctx := context.Background()
	l, err := s.leases.Acquire(ctx, models.WorkflowPurchase, "Plot-1", time.Minute)
	s.Require().NoError(err)

	_, err = s.leases.Acquire(ctx, models.WorkflowPurchase, "Plot-1", time.Minute)
	s.ErrorIs(err, sentinel.ErrHeld)

	s.Require().NoError(s.leases.Release(ctx, l))
	_, err = s.leases.Acquire(ctx, models.WorkflowPurchase, "Plot-1", time.Minute)
	s.NoError(err)
}

func (s *RedisLeaseSuite) TestStaleTokenDoesNotRelease() {
	ctx := context.Background()
	_, err := s.leases.Acquire(ctx, models.WorkflowLock, "Plot-1", time.Minute)
	s.Require().NoError(err)

	forged := models.Lease{Kind: models.WorkflowLock, Key: "Plot-1", Token: "not-the-token"}
	s.Require().NoError(s.leases.Release(ctx, forged))

	_, err = s.leases.Acquire(ctx, models.WorkflowLock, "Plot-1", time.Minute)
	s.ErrorIs(err, sentinel.ErrHeld)
}

func (s *RedisLeaseSuite) TestExpires() {
	ctx := context.Background()
	_, err := s.leases.Acquire(ctx, models.WorkflowCancel, "Plot-1", 200*time.Millisecond)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, err := s.leases.Acquire(ctx, models.WorkflowCancel, "Plot-1", time.Minute)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)
}
