package cache

import (
	"context"
	"time"

	"github.com/chefdigital/chef/internal/workflow"
)

// SnapshotStore keeps the last terminal snapshot of each session.
type SnapshotStore interface {
	// Get returns the saved snapshot for a session, or nil if none exists.
	Get(ctx context.Context, sessionID string) (*workflow.State, error)

	// Set stores a snapshot for a session with the given TTL.
	Set(ctx context.Context, sessionID string, state workflow.State, ttl time.Duration) error

	// Delete removes a session's snapshot.
	Delete(ctx context.Context, sessionID string) error
}
