package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/chefdigital/chef/internal/workflow"
)

// SnapshotCache is a Redis-backed SnapshotStore. Redis failures are logged and
// treated as cache misses; a nil client turns every call into a no-op.
type SnapshotCache struct {
	client *redis.Client
	prefix string
}

// NewSnapshotCache creates a snapshot cache with the given Redis client.
func NewSnapshotCache(client *redis.Client) *SnapshotCache {
	return &SnapshotCache{
		client: client,
		prefix: "chef:session:",
	}
}

func (c *SnapshotCache) makeKey(sessionID string) string {
	return fmt.Sprintf("%s%s", c.prefix, sessionID)
}

// Get retrieves the snapshot saved for sessionID.
func (c *SnapshotCache) Get(ctx context.Context, sessionID string) (*workflow.State, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.makeKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis snapshot get failed", "error", err)
		return nil, nil
	}

	var state workflow.State
	if err := json.Unmarshal(data, &state); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached snapshot", "error", err)
		return nil, nil
	}

	return &state, nil
}

// Set stores a snapshot for sessionID. Only terminal snapshots are worth keeping;
// others are ignored.
func (c *SnapshotCache) Set(ctx context.Context, sessionID string, state workflow.State, ttl time.Duration) error {
	if c.client == nil || !state.Terminal() {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, c.makeKey(sessionID), data, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis snapshot set failed", "error", err)
	}

	return nil
}

// Delete removes the snapshot for sessionID.
func (c *SnapshotCache) Delete(ctx context.Context, sessionID string) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, c.makeKey(sessionID)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis snapshot delete failed", "error", err)
	}

	return nil
}

// NewClient parses a redis:// URL and returns a traced client, or nil when url is empty.
func NewClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to instrument redis client: %w", err)
	}
	return client, nil
}
