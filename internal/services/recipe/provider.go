package recipe

import "context"

// ProviderType represents the type of AI provider
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
)

// ContentProvider produces a structured recipe from a dish name or concept.
type ContentProvider interface {
	FetchRecipe(ctx context.Context, query string) (*Recipe, error)
}
