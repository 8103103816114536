package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recipe payload field names as produced by the text model.
const (
	FieldTitle        = "titulo"
	FieldTime         = "tempo"
	FieldServings     = "porcoes"
	FieldDifficulty   = "dificuldade"
	FieldIngredients  = "ingredientes"
	FieldInstructions = "instrucoes"
)

// RecipeStringFields must decode to non-blank strings.
var RecipeStringFields = []string{FieldTitle, FieldTime, FieldServings, FieldDifficulty}

// RecipeListFields must decode to non-empty arrays of non-blank strings.
var RecipeListFields = []string{FieldIngredients, FieldInstructions}

// PayloadValidationResult lists what is wrong with a recipe payload.
type PayloadValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Missing []string `json:"missing"`
	Invalid []string `json:"invalid"`
}

// Reason summarizes the result for error messages.
func (r PayloadValidationResult) Reason() string {
	if r.IsValid {
		return "payload is valid"
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(r.Missing, ", "))
	}
	if len(r.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(r.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// ValidateRecipePayload checks that data is a JSON object carrying all six recipe
// fields with the expected types. Content is not judged, only presence and shape.
func ValidateRecipePayload(data []byte) (PayloadValidationResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return PayloadValidationResult{}, fmt.Errorf("payload is not a JSON object: %w", err)
	}

	result := PayloadValidationResult{Missing: []string{}, Invalid: []string{}}

	for _, name := range RecipeStringFields {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			result.Missing = append(result.Missing, name)
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			result.Invalid = append(result.Invalid, name)
		}
	}

	for _, name := range RecipeListFields {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			result.Missing = append(result.Missing, name)
			continue
		}
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 || hasBlank(items) {
			result.Invalid = append(result.Invalid, name)
		}
	}

	result.IsValid = len(result.Missing) == 0 && len(result.Invalid) == 0
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func hasBlank(items []string) bool {
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return true
		}
	}
	return false
}
