package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/pscheid92/tweetpulse/internal/domain"
)

const defaultRunStateKey = "tweetpulse:poller:has_run"

var _ domain.CheckpointStore = (*Checkpoint)(nil)

// Checkpoint keeps the run-state flag under a single key. Redis serves reads
// from the primary, so a read observes the latest write.
type Checkpoint struct {
	rdb *redis.Client
	key string
}

// NewCheckpoint stores the flag under key, or a default key when empty.
func NewCheckpoint(c *Client, key string) *Checkpoint {
	if key == "" {
		key = defaultRunStateKey
	}
	return &Checkpoint{rdb: c.rdb, key: key}
}

func (c *Checkpoint) RunState(ctx context.Context) (bool, error) {
	val, err := c.rdb.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get run state: %w", err)
	}

	ran, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("run state %q under %s: %w", val, c.key, err)
	}
	return ran, nil
}

func (c *Checkpoint) SetRunState(ctx context.Context, ran bool) error {
	if err := c.rdb.Set(ctx, c.key, strconv.FormatBool(ran), 0).Err(); err != nil {
		return fmt.Errorf("set run state: %w", err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (c *Checkpoint) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
