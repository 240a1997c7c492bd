package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// ListTags returns all tags ordered by ID.
func (s *SQLiteStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug FROM tags ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// GetTag retrieves a tag by ID.
func (s *SQLiteStore) GetTag(ctx context.Context, id int64) (*models.Tag, error) {
	tag := &models.Tag{}
	err := s.db.QueryRowContext(ctx, "SELECT id, name, slug FROM tags WHERE id = ?", id).
		Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %d: %w", id, mapError(err))
	}
	return tag, nil
}

// CreateTag inserts a tag and assigns its ID.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.db.ExecContext(ctx, "INSERT INTO tags (name, slug) VALUES (?, ?)", tag.Name, tag.Slug)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", mapError(err))
	}
	tag.ID, err = res.LastInsertId()
	return err
}

// UpdateTag overwrites name and slug of an existing tag.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.db.ExecContext(ctx, "UPDATE tags SET name = ?, slug = ? WHERE id = ?", tag.Name, tag.Slug, tag.ID)
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", mapError(err))
	}
	return requireAffected(res, "tag", tag.ID)
}

// DeleteTag removes a tag; recipe links cascade.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return requireAffected(res, "tag", id)
}

// ListIngredients returns ingredients whose name starts with prefix, ordered by name.
func (s *SQLiteStore) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	query := "SELECT id, name, measurement_unit FROM ingredients"
	var args []any
	if prefix != "" {
		// search_name holds the Unicode-lowercased name; SQLite's own
		// case folding only covers ASCII.
		query += ` WHERE search_name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(strings.ToLower(prefix))+"%")
	}
	query += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	ings := []models.Ingredient{}
	for rows.Next() {
		var ing models.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ings = append(ings, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}
	return ings, nil
}

// GetIngredient retrieves an ingredient by ID.
func (s *SQLiteStore) GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, measurement_unit FROM ingredients WHERE id = ?", id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient %d: %w", id, mapError(err))
	}
	return ing, nil
}

// CreateIngredient inserts an ingredient and assigns its ID.
func (s *SQLiteStore) CreateIngredient(ctx context.Context, ing *models.Ingredient) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ingredients (name, measurement_unit, search_name) VALUES (?, ?, ?)",
		ing.Name, ing.MeasurementUnit, strings.ToLower(ing.Name),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingredient: %w", mapError(err))
	}
	ing.ID, err = res.LastInsertId()
	return err
}

// UpdateIngredient overwrites name and unit of an existing ingredient.
func (s *SQLiteStore) UpdateIngredient(ctx context.Context, ing *models.Ingredient) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE ingredients SET name = ?, measurement_unit = ?, search_name = ? WHERE id = ?",
		ing.Name, ing.MeasurementUnit, strings.ToLower(ing.Name), ing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingredient: %w", mapError(err))
	}
	return requireAffected(res, "ingredient", ing.ID)
}

// DeleteIngredient removes an ingredient; recipe lines using it cascade.
func (s *SQLiteStore) DeleteIngredient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM ingredients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	return requireAffected(res, "ingredient", id)
}

// ExistingTagIDs returns which of ids refer to existing tags.
func (s *SQLiteStore) ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return s.existingIDs(ctx, "tags", ids)
}

// ExistingIngredientIDs returns which of ids refer to existing ingredients.
func (s *SQLiteStore) ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	return s.existingIDs(ctx, "ingredients", ids)
}

func (s *SQLiteStore) existingIDs(ctx context.Context, table string, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM "+table+" WHERE id IN ("+placeholders(len(ids))+")",
		int64Args(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		found[id] = true
	}
	return found, rows.Err()
}

// ImportTags inserts tags, skipping ones whose name or slug already exist.
func (s *SQLiteStore) ImportTags(ctx context.Context, tags []models.Tag) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO tags (name, slug) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare tag import: %w", err)
		}
		defer stmt.Close()

		for _, tag := range tags {
			res, err := stmt.ExecContext(ctx, tag.Name, tag.Slug)
			if err != nil {
				return fmt.Errorf("failed to import tag %q: %w", tag.Slug, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

// ImportIngredients inserts ingredients, skipping (name, unit) pairs that already exist.
func (s *SQLiteStore) ImportIngredients(ctx context.Context, ings []models.Ingredient) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT OR IGNORE INTO ingredients (name, measurement_unit, search_name) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare ingredient import: %w", err)
		}
		defer stmt.Close()

		for _, ing := range ings {
			res, err := stmt.ExecContext(ctx, ing.Name, ing.MeasurementUnit, strings.ToLower(ing.Name))
			if err != nil {
				return fmt.Errorf("failed to import ingredient %q: %w", ing.Name, err)
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	return inserted, err
}

func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, storage.ErrNotFound)
	}
	return nil
}
