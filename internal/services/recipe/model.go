package recipe

import (
	"encoding/json"
	"fmt"

	"github.com/chefdigital/chef/internal/validation"
)

// Recipe is the structured output of text generation. It is never mutated after
// it has been produced; share it by pointer.
type Recipe struct {
	Title        string   `json:"title"`
	Time         string   `json:"time"`
	Servings     string   `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// wireRecipe mirrors the response schema sent to the text model.
type wireRecipe struct {
	Title        string   `json:"titulo"`
	Time         string   `json:"tempo"`
	Servings     string   `json:"porcoes"`
	Difficulty   string   `json:"dificuldade"`
	Ingredients  []string `json:"ingredientes"`
	Instructions []string `json:"instrucoes"`
}

// ParseRecipe decodes a model payload after checking all six fields are present
// and well typed.
func ParseRecipe(text string) (*Recipe, error) {
	result, err := validation.ValidateRecipePayload([]byte(text))
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return nil, fmt.Errorf("recipe payload rejected: %s", result.Reason())
	}

	var w wireRecipe
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}

	return &Recipe{
		Title:        w.Title,
		Time:         w.Time,
		Servings:     w.Servings,
		Difficulty:   w.Difficulty,
		Ingredients:  w.Ingredients,
		Instructions: w.Instructions,
	}, nil
}
