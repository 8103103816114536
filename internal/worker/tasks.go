package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/chefdigital/chef/internal/db"
)

// Task type constants
const (
	TypeArchiveRecipe = "archive:recipe"
)

// QueueArchive is the queue archive tasks are enqueued on.
const QueueArchive = "archive"

// ArchiveRecipePayload is the payload for recipe archive tasks
type ArchiveRecipePayload struct {
	Recipe db.ArchivedRecipe `json:"recipe"`
}

// NewArchiveRecipeTask creates a new archive task. The task ID is the recipe ID, so
// enqueueing the same recipe twice is rejected by asynq.
func NewArchiveRecipeTask(payload ArchiveRecipePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeArchiveRecipe, data,
		asynq.TaskID(payload.Recipe.ID.String()),
		asynq.Queue(QueueArchive),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}
