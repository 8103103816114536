package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/chefdigital/chef/internal/db"
	apperrors "github.com/chefdigital/chef/internal/errors"
	"github.com/chefdigital/chef/internal/metrics"
)

// RecipeSaver stores archived recipes.
type RecipeSaver interface {
	SaveRecipe(ctx context.Context, r db.ArchivedRecipe) error
}

type ArchiveProcessor struct {
	store   RecipeSaver
	metrics *WorkerMetrics
}

func NewArchiveProcessor(store RecipeSaver, m *WorkerMetrics) *ArchiveProcessor {
	return &ArchiveProcessor{store: store, metrics: m}
}

// Handlers returns the task handlers served by the worker.
func (p *ArchiveProcessor) Handlers() map[string]asynq.HandlerFunc {
	return map[string]asynq.HandlerFunc{
		TypeArchiveRecipe: p.HandleArchiveRecipe,
	}
}

func (p *ArchiveProcessor) HandleArchiveRecipe(ctx context.Context, t *asynq.Task) error {
	startTime := time.Now()
	status := "success"
	defer func() {
		p.metrics.RecordJob(ctx, t.Type(), status, time.Since(startTime).Seconds())
	}()

	var payload ArchiveRecipePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		status = "invalid"
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := validateArchived(payload.Recipe); err != nil {
		status = "invalid"
		return permanent(err)
	}

	if err := p.store.SaveRecipe(ctx, payload.Recipe); err != nil {
		status = "failed"
		slog.ErrorContext(ctx, "Failed to archive recipe", "recipe_id", payload.Recipe.ID, "error", err)
		return err
	}

	metrics.RecordArchived(ctx, "queue")
	slog.InfoContext(ctx, "Recipe archived", "recipe_id", payload.Recipe.ID, "title", payload.Recipe.Recipe.Title)
	return nil
}

func validateArchived(r db.ArchivedRecipe) error {
	if r.ID == uuid.Nil {
		return apperrors.NewValidationError("archived recipe has no id", "ARCHIVE_INVALID", "")
	}
	if strings.TrimSpace(r.Recipe.Title) == "" {
		return apperrors.NewValidationError("archived recipe has no title", "ARCHIVE_INVALID", "")
	}
	if len(r.Recipe.Ingredients) == 0 || len(r.Recipe.Instructions) == 0 {
		return apperrors.NewValidationError("archived recipe is incomplete", "ARCHIVE_INVALID", "")
	}
	return nil
}
