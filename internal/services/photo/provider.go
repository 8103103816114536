package photo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	apperrors "github.com/chefdigital/chef/internal/errors"
	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/services/ai"
	"github.com/chefdigital/chef/internal/services/gemini"
	"github.com/chefdigital/chef/internal/telemetry"
)

const (
	// DefaultModel is the image model used when none is configured.
	DefaultModel = "gemini-2.5-flash-image"
	// DefaultAspectRatio is portrait, matching the printed page.
	DefaultAspectRatio = "3:4"
)

// ImageProvider produces a plated-dish photograph for a recipe title.
type ImageProvider interface {
	FetchImage(ctx context.Context, subject string) (Encoded, error)
}

// GeminiProvider implements ImageProvider with the Gemini image model.
type GeminiProvider struct {
	models      gemini.ContentGenerator
	model       string
	aspectRatio string
}

func NewGeminiProvider(models gemini.ContentGenerator, model, aspectRatio string) *GeminiProvider {
	if model == "" {
		model = DefaultModel
	}
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio
	}
	return &GeminiProvider{models: models, model: model, aspectRatio: aspectRatio}
}

// FetchImage makes one image generation call for subject and returns the first
// inline image part. Any failure is an image generation error.
func (p *GeminiProvider) FetchImage(ctx context.Context, subject string) (Encoded, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", apperrors.NewImageGenerationError("image subject is empty", "IMAGE_NO_SUBJECT", nil)
	}

	ctx, span := telemetry.Tracer("photo").Start(ctx, "photo.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.request.model", p.model),
		attribute.String("image.aspect_ratio", p.aspectRatio),
	)

	startTime := time.Now()
	defer func() {
		metrics.RecordAPICall(ctx, "gemini", p.model, time.Since(startTime).Seconds())
	}()

	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{AspectRatio: p.aspectRatio},
	}

	res, err := p.models.GenerateContent(ctx, p.model, genai.Text(ai.BuildImagePrompt(subject)), config)
	if err != nil {
		providerErr := gemini.ClassifyError(err, "gemini")
		slog.WarnContext(ctx, "Image generation call failed", "error_type", providerErr.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, providerErr.Type)
		return "", apperrors.NewImageGenerationError("image generation failed", "IMAGE_PROVIDER_ERROR", err)
	}

	blob := firstInlineImage(res)
	if blob == nil {
		span.SetStatus(codes.Error, "no image part")
		return "", apperrors.NewImageGenerationError("image generation returned no image", "IMAGE_EMPTY_RESPONSE", nil)
	}

	span.SetAttributes(attribute.Int("image.bytes", len(blob.Data)))
	return Encode(blob.MIMEType, blob.Data), nil
}

func firstInlineImage(res *genai.GenerateContentResponse) *genai.Blob {
	if res == nil || len(res.Candidates) == 0 {
		return nil
	}
	content := res.Candidates[0].Content
	if content == nil {
		return nil
	}
	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if mt := part.InlineData.MIMEType; mt != "" && !strings.HasPrefix(mt, "image/") {
			continue
		}
		return part.InlineData
	}
	return nil
}
