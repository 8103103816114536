package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chefdigital/chef/internal/services/recipe"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// ArchivedRecipe is a generated recipe kept for later browsing. The image is
// not stored, only whether one was produced.
type ArchivedRecipe struct {
	ID        uuid.UUID     `json:"id"`
	SessionID string        `json:"sessionId"`
	Query     string        `json:"query"`
	Recipe    recipe.Recipe `json:"recipe"`
	HasImage  bool          `json:"hasImage"`
	CreatedAt time.Time     `json:"createdAt"`
}

const createGeneratedRecipes = `
CREATE TABLE IF NOT EXISTS generated_recipes (
    id           UUID PRIMARY KEY,
    session_id   TEXT NOT NULL,
    query        TEXT NOT NULL,
    title        TEXT NOT NULL,
    time         TEXT NOT NULL,
    servings     TEXT NOT NULL,
    difficulty   TEXT NOT NULL,
    ingredients  TEXT[] NOT NULL,
    instructions TEXT[] NOT NULL,
    has_image    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS generated_recipes_created_at_idx ON generated_recipes (created_at DESC);
`

const insertGeneratedRecipe = `
INSERT INTO generated_recipes (id, session_id, query, title, time, servings, difficulty, ingredients, instructions, has_image, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO NOTHING
`

const listGeneratedRecipes = `
SELECT id, session_id, query, title, time, servings, difficulty, ingredients, instructions, has_image, created_at
FROM generated_recipes
ORDER BY created_at DESC
LIMIT $1
`

// MaxListLimit caps ListRecent.
const MaxListLimit = 100

// RecipeStore persists archived recipes in Postgres.
type RecipeStore struct {
	db DBTX
}

func NewRecipeStore(db DBTX) *RecipeStore {
	return &RecipeStore{db: db}
}

// EnsureSchema creates the archive table if it does not exist.
func (s *RecipeStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createGeneratedRecipes); err != nil {
		return fmt.Errorf("failed to create generated_recipes: %w", err)
	}
	return nil
}

// SaveRecipe inserts r. Saving the same ID twice is a no-op, so redelivered
// archive tasks are harmless.
func (s *RecipeStore) SaveRecipe(ctx context.Context, r ArchivedRecipe) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("archived recipe has no id")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertGeneratedRecipe,
		r.ID,
		r.SessionID,
		r.Query,
		r.Recipe.Title,
		r.Recipe.Time,
		r.Recipe.Servings,
		r.Recipe.Difficulty,
		r.Recipe.Ingredients,
		r.Recipe.Instructions,
		r.HasImage,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", r.ID, err)
	}
	return nil
}

// ListRecent returns up to limit recipes, newest first.
func (s *RecipeStore) ListRecent(ctx context.Context, limit int) ([]ArchivedRecipe, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.Query(ctx, listGeneratedRecipes, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	items := []ArchivedRecipe{}
	for rows.Next() {
		var r ArchivedRecipe
		if err := rows.Scan(
			&r.ID,
			&r.SessionID,
			&r.Query,
			&r.Recipe.Title,
			&r.Recipe.Time,
			&r.Recipe.Servings,
			&r.Recipe.Difficulty,
			&r.Recipe.Ingredients,
			&r.Recipe.Instructions,
			&r.HasImage,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return items, nil
}
