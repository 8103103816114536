package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
)

// SentryMiddleware reports task failures to Sentry. A failure that asynq will retry
// is reported only on its last attempt, so one lost recipe is one event.
func SentryMiddleware(h asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		taskID, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("task_type", t.Type())
			scope.SetTag("task_id", taskID)
			scope.SetTag("attempt", strconv.Itoa(retried+1))
			if sessionID := taskSession(t); sessionID != "" {
				scope.SetTag("session_id", sessionID)
			}
		})
		ctx = sentry.SetHubOnContext(ctx, hub)

		err := h.ProcessTask(ctx, t)
		if reportable(err, retried, maxRetry) {
			hub.CaptureException(err)
		}
		return err
	})
}

func reportable(err error, retried, maxRetry int) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, asynq.SkipRetry) || retried >= maxRetry
}

// taskSession returns the session an archive task belongs to, if the payload decodes.
func taskSession(t *asynq.Task) string {
	if t.Type() != TypeArchiveRecipe {
		return ""
	}
	var payload ArchiveRecipePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return ""
	}
	return payload.Recipe.SessionID
}
