// Package archive keeps a copy of every recipe a session finishes. Recipes are
// written to Postgres, either directly or through the asynq worker.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chefdigital/chef/internal/db"
	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/worker"
	"github.com/chefdigital/chef/internal/workflow"
)

// ErrDisabled is returned by List when no archive is configured.
var ErrDisabled = errors.New("archive: disabled")

// Archiver stores finished recipes and lists recent ones.
type Archiver interface {
	Archive(ctx context.Context, sessionID string, state workflow.State) error
	List(ctx context.Context, limit int) ([]db.ArchivedRecipe, error)
}

// Store is the Postgres side used by both archivers.
type Store interface {
	worker.RecipeSaver
	ListRecent(ctx context.Context, limit int) ([]db.ArchivedRecipe, error)
}

// Entry converts a snapshot with a finished recipe into an archive record. The ID
// is derived from the session and request so repeated archiving is idempotent.
func Entry(sessionID string, state workflow.State) (db.ArchivedRecipe, error) {
	if !state.HasRecipe() {
		return db.ArchivedRecipe{}, fmt.Errorf("archive: snapshot for request %d has no recipe", state.Request)
	}
	at := state.UpdatedAt
	if at.IsZero() {
		at = time.Now()
	}
	return db.ArchivedRecipe{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", sessionID, state.Request))),
		SessionID: sessionID,
		Query:     state.Query,
		Recipe:    *state.Recipe,
		HasImage:  !state.Image.IsZero(),
		CreatedAt: at.UTC(),
	}, nil
}

// Direct writes to the store from the calling goroutine.
type Direct struct {
	store Store
}

func NewDirect(store Store) *Direct {
	return &Direct{store: store}
}

func (d *Direct) Archive(ctx context.Context, sessionID string, state workflow.State) error {
	entry, err := Entry(sessionID, state)
	if err != nil {
		return err
	}
	if err := d.store.SaveRecipe(ctx, entry); err != nil {
		return err
	}
	metrics.RecordArchived(ctx, "direct")
	return nil
}

func (d *Direct) List(ctx context.Context, limit int) ([]db.ArchivedRecipe, error) {
	return d.store.ListRecent(ctx, limit)
}

// Queued enqueues an archive task for the worker. Listing still reads the store
// directly when one is available.
type Queued struct {
	client worker.Enqueuer
	store  Store
}

func NewQueued(client worker.Enqueuer, store Store) *Queued {
	return &Queued{client: client, store: store}
}

func (q *Queued) Archive(ctx context.Context, sessionID string, state workflow.State) error {
	entry, err := Entry(sessionID, state)
	if err != nil {
		return err
	}
	task, err := worker.NewArchiveRecipeTask(worker.ArchiveRecipePayload{Recipe: entry})
	if err != nil {
		return fmt.Errorf("failed to build archive task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue archive task: %w", err)
	}
	return nil
}

func (q *Queued) List(ctx context.Context, limit int) ([]db.ArchivedRecipe, error) {
	if q.store == nil {
		return nil, ErrDisabled
	}
	return q.store.ListRecent(ctx, limit)
}

// Disabled drops every recipe.
type Disabled struct{}

func (Disabled) Archive(context.Context, string, workflow.State) error { return nil }

func (Disabled) List(context.Context, int) ([]db.ArchivedRecipe, error) {
	return nil, ErrDisabled
}
