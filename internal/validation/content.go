package validation

import (
	"strings"

	apperrors "github.com/chefdigital/chef/internal/errors"
)

// QueryValidationResult contains the outcome of query validation
type QueryValidationResult struct {
	IsValid bool   `json:"is_valid"`
	Query   string `json:"query"`
	Reason  string `json:"reason"`
}

// QuickValidate performs the cheap checks on a generation query without API calls.
func QuickValidate(query string) QueryValidationResult {
	trimmed := strings.TrimSpace(query)

	if trimmed == "" {
		return QueryValidationResult{
			IsValid: false,
			Reason:  "No query provided",
		}
	}

	return QueryValidationResult{
		IsValid: true,
		Query:   trimmed,
		Reason:  "Query passed quick validation",
	}
}

// ValidateQuery returns the trimmed query or an InvalidInputError.
func ValidateQuery(query string) (string, error) {
	result := QuickValidate(query)
	if !result.IsValid {
		return "", apperrors.NewInvalidInputError(result.Reason)
	}
	return result.Query, nil
}
