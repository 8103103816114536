package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("chefdigital/business")

	// Generation metrics
	GenerationRequestsTotal metric.Int64Counter
	GenerationStageTotal    metric.Int64Counter
	GenerationStageDuration metric.Float64Histogram

	// External API metrics
	ExternalAPICallsTotal metric.Int64Counter
	ExternalAPIDuration   metric.Float64Histogram

	// Export metrics
	ExportsTotal metric.Int64Counter

	// Archive metrics
	ArchivedRecipesTotal metric.Int64Counter
)

func Init() error {
	var err error

	GenerationRequestsTotal, err = meter.Int64Counter(
		"generation.requests.total",
		metric.WithDescription("Total number of accepted generation requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	GenerationStageTotal, err = meter.Int64Counter(
		"generation.stage.total",
		metric.WithDescription("Generation stages by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	GenerationStageDuration, err = meter.Float64Histogram(
		"generation.stage.duration",
		metric.WithDescription("Duration of a generation stage"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.5, 1, 2, 5, 10, 20, 30, 60),
	)
	if err != nil {
		return err
	}

	// External API metrics
	ExternalAPICallsTotal, err = meter.Int64Counter(
		"external.api.calls.total",
		metric.WithDescription("Total number of external API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ExternalAPIDuration, err = meter.Float64Histogram(
		"external.api.duration",
		metric.WithDescription("Duration of external API calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2, 5, 10, 30),
	)
	if err != nil {
		return err
	}

	ExportsTotal, err = meter.Int64Counter(
		"export.documents.total",
		metric.WithDescription("Total number of printable documents rendered"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	ArchivedRecipesTotal, err = meter.Int64Counter(
		"archive.recipes.total",
		metric.WithDescription("Total number of recipes written to the archive"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return err
	}

	return nil
}

// The helpers below are no-ops until Init has run, so packages can record
// unconditionally (tests never call Init).

// RecordStage records the outcome and duration of one generation stage.
func RecordStage(ctx context.Context, stage, outcome string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	)
	if GenerationStageTotal != nil {
		GenerationStageTotal.Add(ctx, 1, attrs)
	}
	if GenerationStageDuration != nil {
		GenerationStageDuration.Record(ctx, seconds, attrs)
	}
}

// RecordAPICall records one call to an external provider.
func RecordAPICall(ctx context.Context, provider, model string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
	)
	if ExternalAPICallsTotal != nil {
		ExternalAPICallsTotal.Add(ctx, 1, attrs)
	}
	if ExternalAPIDuration != nil {
		ExternalAPIDuration.Record(ctx, seconds, attrs)
	}
}

// RecordRequest counts an accepted generation request.
func RecordRequest(ctx context.Context) {
	if GenerationRequestsTotal != nil {
		GenerationRequestsTotal.Add(ctx, 1)
	}
}

// RecordExport counts a rendered export document.
func RecordExport(ctx context.Context, withImage bool) {
	if ExportsTotal != nil {
		ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("with_image", withImage)))
	}
}

// RecordArchived counts a recipe written to the archive.
func RecordArchived(ctx context.Context, via string) {
	if ArchivedRecipesTotal != nil {
		ArchivedRecipesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("via", via)))
	}
}
