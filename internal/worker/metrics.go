package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("chefdigital/worker")

// WorkerMetrics counts processed tasks by type, queue and outcome.
type WorkerMetrics struct {
	tasks    metric.Int64Counter
	duration metric.Float64Histogram
}

func NewWorkerMetrics() (*WorkerMetrics, error) {
	tasks, err := meter.Int64Counter(
		"chef.worker.tasks.total",
		metric.WithDescription("Background tasks processed, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	// Archive tasks are a single insert; anything past a second is a slow database.
	duration, err := meter.Float64Histogram(
		"chef.worker.task.duration",
		metric.WithDescription("Time spent processing a background task"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 5),
	)
	if err != nil {
		return nil, err
	}

	return &WorkerMetrics{tasks: tasks, duration: duration}, nil
}

// RecordJob records one task outcome: success, invalid or failed.
func (m *WorkerMetrics) RecordJob(ctx context.Context, taskType, status string, duration float64) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("task.type", taskType)}
	if queue, ok := asynq.GetQueueName(ctx); ok {
		attrs = append(attrs, attribute.String("task.queue", queue))
	}

	m.tasks.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("status", status))...))
	m.duration.Record(ctx, duration, metric.WithAttributes(attrs...))
}
