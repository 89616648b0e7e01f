package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"landledger/internal/ledgersync/models"
	"landledger/pkg/platform/sentinel"
)

const (
	entryPrefix = "landledger:journal:entry:"
	openIndex   = "landledger:journal:open"
)

// Redis keeps one hash per entry and a sorted set of open entry ids scored by
// creation time.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (j *Redis) Save(ctx context.Context, entry models.JournalEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	key := entryPrefix + entry.ID.String()
	_, err = j.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "data", data, "state", string(entry.State))
		if entry.Open() {
			p.ZAdd(ctx, openIndex, redis.Z{Score: float64(entry.CreatedAt.UnixMilli()), Member: entry.ID.String()})
		} else {
			p.ZRem(ctx, openIndex, entry.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (j *Redis) Get(ctx context.Context, entryID uuid.UUID) (models.JournalEntry, error) {
	data, err := j.client.HGet(ctx, entryPrefix+entryID.String(), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.JournalEntry{}, sentinel.ErrNotFound
		}
		return models.JournalEntry{}, fmt.Errorf("get journal entry: %w", err)
	}
	return decode(data)
}

func (j *Redis) ListOpen(ctx context.Context, limit int) ([]models.JournalEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := j.client.ZRange(ctx, openIndex, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("list open journal entries: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.StringCmd, len(ids))
	_, err = j.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, entryID := range ids {
			cmds[i] = p.HGet(ctx, entryPrefix+entryID, "data")
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load journal entries: %w", err)
	}

	out := make([]models.JournalEntry, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load journal entry: %w", err)
		}
		e, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decode(data []byte) (models.JournalEntry, error) {
	var e models.JournalEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return models.JournalEntry{}, fmt.Errorf("decode journal entry: %w", err)
	}
	return e, nil
}
