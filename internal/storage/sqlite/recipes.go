package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// recipeSelect reads recipe rows with the viewer flags; it binds the
// viewer ID twice before any WHERE arguments.
const recipeSelect = `SELECT r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.pub_date,
	EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?),
	EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = ?),
	(SELECT COUNT(*) FROM favorites fc WHERE fc.recipe_id = r.id)
	FROM recipes r`

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := row.Scan(
		&recipe.ID,
		&recipe.AuthorID,
		&recipe.Name,
		&recipe.Image,
		&recipe.Text,
		&recipe.CookingTime,
		&recipe.PubDate,
		&recipe.IsFavorited,
		&recipe.IsInCart,
		&recipe.FavoritesCount,
	)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateRecipe persists a new recipe with its ingredients and tags.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	if recipe.PubDate == 0 {
		recipe.PubDate = time.Now().UnixNano()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (author_id, name, image, text, cooking_time, pub_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			recipe.AuthorID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.PubDate,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", mapError(err))
		}
		recipe.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read recipe id: %w", err)
		}

		return replaceRecipeLinks(ctx, tx, recipe)
	})
}

// UpdateRecipe overwrites the recipe fields and replaces its ingredients and tags.
// PubDate and AuthorID are left unchanged.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, image = ?, text = ?, cooking_time = ? WHERE id = ?`,
			recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", mapError(err))
		}
		if err := requireAffected(res, "recipe", recipe.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", recipe.ID); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = ?", recipe.ID); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}

		return replaceRecipeLinks(ctx, tx, recipe)
	})
}

// replaceRecipeLinks inserts the ingredient and tag rows of recipe.
func replaceRecipeLinks(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	for _, ing := range recipe.Ingredients {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)",
			recipe.ID, ing.IngredientID, ing.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient %d: %w", ing.IngredientID, mapError(err))
		}
	}

	for _, tag := range recipe.Tags {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)",
			recipe.ID, tag.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe tag %d: %w", tag.ID, mapError(err))
		}
	}
	return nil
}

// DeleteRecipe removes a recipe; its links, favorites and cart entries cascade.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return requireAffected(res, "recipe", id)
}

// GetRecipe retrieves a recipe by ID with author, ingredients, tags and viewer flags.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id, viewerID int64) (*models.Recipe, error) {
	row := s.db.QueryRowContext(ctx, recipeSelect+" WHERE r.id = ?", viewerID, viewerID, id)
	recipe, err := scanRecipe(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, mapError(err))
	}

	if err := s.hydrate(ctx, []*models.Recipe{recipe}, viewerID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// buildRecipeWhere turns a filter into a WHERE clause and its arguments.
func buildRecipeWhere(f models.RecipeFilter) (string, []any) {
	var conds []string
	var args []any

	if f.AuthorID != 0 {
		conds = append(conds, "r.author_id = ?")
		args = append(args, f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		conds = append(conds, `r.id IN (SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id WHERE t.slug IN (`+placeholders(len(f.TagSlugs))+`))`)
		for _, slug := range f.TagSlugs {
			args = append(args, slug)
		}
	}
	if f.ViewerID != 0 && f.OnlyFavorited {
		conds = append(conds, "r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)")
		args = append(args, f.ViewerID)
	}
	if f.ViewerID != 0 && f.OnlyInCart {
		conds = append(conds, "r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)")
		args = append(args, f.ViewerID)
	}
	if f.Search != "" {
		conds = append(conds, `r.name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListRecipes returns a page of recipes matching the filter, newest first,
// and the total number of matches.
func (s *SQLiteStore) ListRecipes(ctx context.Context, f models.RecipeFilter) ([]*models.Recipe, int, error) {
	where, whereArgs := buildRecipeWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes r"+where, whereArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	args := append([]any{f.ViewerID, f.ViewerID}, whereArgs...)
	query := recipeSelect + where + " ORDER BY r.pub_date DESC, r.id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	recipes, err := s.queryRecipes(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := s.hydrate(ctx, recipes, f.ViewerID); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// ListRecipesByAuthor returns the author's recipes without ingredients,
// tags or author details, and the author's total recipe count.
func (s *SQLiteStore) ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]*models.Recipe, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes WHERE author_id = ?", authorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	query := recipeSelect + " WHERE r.author_id = ? ORDER BY r.pub_date DESC, r.id DESC"
	args := []any{0, 0, authorID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	recipes, err := s.queryRecipes(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *SQLiteStore) queryRecipes(ctx context.Context, query string, args ...any) ([]*models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []*models.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

// hydrate loads authors, ingredients and tags for the given recipes in
// three batched queries.
func (s *SQLiteStore) hydrate(ctx context.Context, recipes []*models.Recipe, viewerID int64) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[int64]*models.Recipe, len(recipes))
	ids := make([]int64, 0, len(recipes))
	authorSet := make(map[int64]bool)
	var authorIDs []int64
	for _, r := range recipes {
		byID[r.ID] = r
		ids = append(ids, r.ID)
		r.Ingredients = []models.RecipeIngredient{}
		r.Tags = []models.Tag{}
		if !authorSet[r.AuthorID] {
			authorSet[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authors, err := s.getUsersByIDs(ctx, s.db, authorIDs, viewerID)
	if err != nil {
		return err
	}
	for _, r := range recipes {
		r.Author = authors[r.AuthorID]
	}

	ingRows, err := s.db.QueryContext(ctx,
		`SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id IN (`+placeholders(len(ids))+`)
		 ORDER BY i.name, i.id`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var recipeID int64
		var ing models.RecipeIngredient
		if err := ingRows.Scan(&recipeID, &ing.IngredientID, &ing.Name, &ing.MeasurementUnit, &ing.Amount); err != nil {
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		byID[recipeID].Ingredients = append(byID[recipeID].Ingredients, ing)
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}

	tagRows, err := s.db.QueryContext(ctx,
		`SELECT rt.recipe_id, t.id, t.name, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id IN (`+placeholders(len(ids))+`)
		 ORDER BY t.id`,
		int64Args(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var recipeID int64
		var tag models.Tag
		if err := tagRows.Scan(&recipeID, &tag.ID, &tag.Name, &tag.Slug); err != nil {
			return fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		byID[recipeID].Tags = append(byID[recipeID].Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe tags: %w", err)
	}
	return nil
}

// AddRelation adds the recipe to the user's favorites or shopping cart.
func (s *SQLiteStore) AddRelation(ctx context.Context, rel models.RecipeRelation, userID, recipeID int64) error {
	table, err := relationTable(rel)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "INSERT INTO "+table+" (user_id, recipe_id) VALUES (?, ?)", userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to add recipe %d to %s: %w", recipeID, rel, mapError(err))
	}
	return nil
}

// RemoveRelation removes the recipe from the user's favorites or shopping cart.
func (s *SQLiteStore) RemoveRelation(ctx context.Context, rel models.RecipeRelation, userID, recipeID int64) error {
	table, err := relationTable(rel)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove recipe %d from %s: %w", recipeID, rel, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recipe %d in %s: %w", recipeID, rel, storage.ErrNotFound)
	}
	return nil
}

func relationTable(rel models.RecipeRelation) (string, error) {
	switch rel {
	case models.Favorites:
		return "favorites", nil
	case models.ShoppingCart:
		return "shopping_cart", nil
	default:
		return "", fmt.Errorf("unknown recipe relation %q", rel)
	}
}

// CartContents returns the ingredient lines of all recipes in the user's
// cart, plus the names of those recipes ordered by name.
func (s *SQLiteStore) CartContents(ctx context.Context, userID int64) ([]models.RecipeIngredient, []string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.name, i.measurement_unit, ri.amount
		 FROM shopping_cart c
		 JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE c.user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart ingredients: %w", err)
	}
	defer rows.Close()

	var lines []models.RecipeIngredient
	for rows.Next() {
		var line models.RecipeIngredient
		if err := rows.Scan(&line.IngredientID, &line.Name, &line.MeasurementUnit, &line.Amount); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cart ingredient: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate cart ingredients: %w", err)
	}

	nameRows, err := s.db.QueryContext(ctx,
		`SELECT r.name FROM shopping_cart c JOIN recipes r ON r.id = c.recipe_id
		 WHERE c.user_id = ? ORDER BY r.name`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cart recipes: %w", err)
	}
	defer nameRows.Close()

	var names []string
	for nameRows.Next() {
		var name string
		if err := nameRows.Scan(&name); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cart recipe: %w", err)
		}
		names = append(names, name)
	}
	if err := nameRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate cart recipes: %w", err)
	}
	return lines, names, nil
}
