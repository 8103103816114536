package workflow

import apperrors "github.com/chefdigital/chef/internal/errors"

var errNoRecipe = apperrors.NewContentGenerationError("recipe provider returned no recipe", "RECIPE_EMPTY_RESPONSE", nil)

var errEmptyImage = apperrors.NewImageGenerationError("image provider returned an empty image", "IMAGE_EMPTY_RESPONSE", nil)
