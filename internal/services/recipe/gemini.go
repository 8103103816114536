package recipe

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
	"github.com/chefdigital/chef/internal/validation"
)

// DefaultModel is the text model used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		validation.FieldTitle:      {Type: genai.TypeString},
		validation.FieldTime:       {Type: genai.TypeString},
		validation.FieldServings:   {Type: genai.TypeString},
		validation.FieldDifficulty: {Type: genai.TypeString},
		validation.FieldIngredients: {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		validation.FieldInstructions: {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{
		validation.FieldTitle,
		validation.FieldTime,
		validation.FieldServings,
		validation.FieldDifficulty,
		validation.FieldIngredients,
		validation.FieldInstructions,
	},
	PropertyOrdering: []string{
		validation.FieldTitle,
		validation.FieldTime,
		validation.FieldServings,
		validation.FieldDifficulty,
		validation.FieldIngredients,
		validation.FieldInstructions,
	},
}

// GeminiProvider implements ContentProvider with the Gemini API
type GeminiProvider struct {
	models   gemini.ContentGenerator
	model    string
	language string
}

// NewGeminiProvider creates a new Gemini recipe provider
func NewGeminiProvider(models gemini.ContentGenerator, model, language string) *GeminiProvider {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiProvider{models: models, model: model, language: language}
}

// FetchRecipe generates a recipe for query with a single call. Every failure is a
// content generation error; there is no retry.
func (p *GeminiProvider) FetchRecipe(ctx context.Context, query string) (*Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewInvalidInputError("query is required")
	}

	ctx, span := telemetry.Tracer("recipe").Start(ctx, "recipe.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("gen_ai.request.model", p.model))

	startTime := time.Now()
	defer func() {
		metrics.RecordAPICall(ctx, string(ProviderGemini), p.model, time.Since(startTime).Seconds())
	}()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ai.BuildSystemInstruction(p.language), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema,
	}

	res, err := p.models.GenerateContent(ctx, p.model, genai.Text(ai.BuildRecipeRequest(query)), config)
	if err != nil {
		providerErr := gemini.ClassifyError(err, string(ProviderGemini))
		slog.ErrorContext(ctx, "Recipe generation call failed", "error_type", providerErr.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, providerErr.Type)
		return nil, apperrors.NewContentGenerationError("recipe generation failed", "RECIPE_PROVIDER_ERROR", err)
	}

	text := ""
	if res != nil {
		text = strings.TrimSpace(res.Text())
	}
	if text == "" {
		span.SetStatus(codes.Error, "empty response")
		return nil, apperrors.NewContentGenerationError("recipe generation returned no content", "RECIPE_EMPTY_RESPONSE", nil)
	}

	recipe, err := ParseRecipe(text)
	if err != nil {
		slog.WarnContext(ctx, "Recipe payload rejected", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payload")
		return nil, apperrors.NewContentGenerationError("recipe generation returned an invalid payload", "RECIPE_INVALID_PAYLOAD", err)
	}

	span.SetAttributes(
		attribute.Int("recipe.ingredients", len(recipe.Ingredients)),
		attribute.Int("recipe.instructions", len(recipe.Instructions)),
	)
	return recipe, nil
}
