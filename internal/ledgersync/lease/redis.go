package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
)

const keyPrefix = "landledger:lease:"

// releaseScript deletes the key only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares the lease table across service instances. Expiry is enforced
// by the key TTL.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

func (r *Redis) Acquire(ctx context.Context, kind models.WorkflowKind, key string, ttl time.Duration) (models.Lease, error) {
	if ttl <= 0 {
		return models.Lease{}, fmt.Errorf("lease ttl must be positive")
	}
	l := models.Lease{Kind: kind, Key: key, Token: uuid.NewString(), ExpiresAt: r.now().Add(ttl)}
	ok, err := r.client.SetNX(ctx, redisKey(kind, key), l.Token, ttl).Result()
	if err != nil {
		return models.Lease{}, fmt.Errorf("acquire lease: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return models.Lease{}, fmt.Errorf("lease %s:%s: %w", kind, key, sentinel.ErrHeld)
	}
	return l, nil
}

func (r *Redis) Release(ctx context.Context, l models.Lease) error {
	if err := releaseScript.Run(ctx, r.client, []string{redisKey(l.Kind, l.Key)}, l.Token).Err(); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

func redisKey(kind models.WorkflowKind, key string) string {
	return keyPrefix + slotKey(kind, key)
}
