package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/foodgram/internal/models"
)

// GetShortLinkByRecipe returns the short link assigned to a recipe.
func (s *SQLiteStore) GetShortLinkByRecipe(ctx context.Context, recipeID int64) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	err := s.db.QueryRowContext(ctx,
		"SELECT code, recipe_id FROM recipe_short_links WHERE recipe_id = ?", recipeID,
	).Scan(&link.Code, &link.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get short link for recipe %d: %w", recipeID, mapError(err))
	}
	return link, nil
}

// GetShortLink resolves a short code.
func (s *SQLiteStore) GetShortLink(ctx context.Context, code string) (*models.ShortLink, error) {
	link := &models.ShortLink{}
	err := s.db.QueryRowContext(ctx,
		"SELECT code, recipe_id FROM recipe_short_links WHERE code = ?", code,
	).Scan(&link.Code, &link.RecipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get short link %q: %w", code, mapError(err))
	}
	return link, nil
}

// CreateShortLink stores a new code. A collision on either the code or
// the recipe yields storage.ErrAlreadyExists.
func (s *SQLiteStore) CreateShortLink(ctx context.Context, link *models.ShortLink) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO recipe_short_links (code, recipe_id) VALUES (?, ?)",
		link.Code, link.RecipeID,
	)
	if err != nil {
		return fmt.Errorf("failed to create short link: %w", mapError(err))
	}
	return nil
}
