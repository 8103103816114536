package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	apperrors "github.com/chefdigital/chef/internal/errors"
)

// NewServer creates a new Asynq server for processing tasks
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueArchive: 1,
			},
			// Tasks interrupted by shutdown are retried without using up an attempt.
			IsFailure: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				slog.ErrorContext(ctx, "Task failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
			}),
		},
	), nil
}

// NewMux registers the handlers behind the tracing and Sentry middleware.
func NewMux(handlers map[string]asynq.HandlerFunc) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(OTelMiddleware, SentryMiddleware)
	for taskType, handler := range handlers {
		mux.HandleFunc(taskType, handler)
	}
	return mux
}

// permanent marks errors that retrying cannot fix.
func permanent(err error) error {
	if appErr, ok := apperrors.As(err); ok && !appErr.IsRetryable() && appErr.Type != apperrors.ErrorTypeInternal {
		return errors.Join(err, asynq.SkipRetry)
	}
	return err
}
