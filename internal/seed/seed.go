// Package seed imports reference data (ingredients and tags) from JSON
// fixture files.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/validation"
)

const (
	DefaultIngredientsFile = "data/ingredients.json"
	DefaultTagsFile        = "data/tags.json"
)

// Importer is the storage side of an import.
type Importer interface {
	ImportTags(ctx context.Context, tags []models.Tag) (int, error)
	ImportIngredients(ctx context.Context, ings []models.Ingredient) (int, error)
}

type ingredientRecord struct {
	Name            string `json:"name" validate:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type tagRecord struct {
	Name string `json:"name" validate:"required,max=32"`
	Slug string `json:"slug" validate:"required,max=32,slug"`
}

// Result reports how many records a file held and how many were new.
type Result struct {
	Read     int
	Inserted int
}

// LoadIngredients reads a JSON array of {name, measurement_unit} records
// and inserts them, skipping ones that already exist.
func LoadIngredients(ctx context.Context, imp Importer, r io.Reader) (Result, error) {
	var records []ingredientRecord
	if err := decode(r, &records); err != nil {
		return Result{}, err
	}

	ings := make([]models.Ingredient, len(records))
	for i, rec := range records {
		if err := validation.ValidateStruct(&rec); err != nil {
			return Result{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		ings[i] = models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit}
	}

	n, err := imp.ImportIngredients(ctx, ings)
	if err != nil {
		return Result{}, fmt.Errorf("failed to import ingredients: %w", err)
	}
	return Result{Read: len(records), Inserted: n}, nil
}

// LoadTags reads a JSON array of {name, slug} records and inserts them,
// skipping ones that already exist.
func LoadTags(ctx context.Context, imp Importer, r io.Reader) (Result, error) {
	var records []tagRecord
	if err := decode(r, &records); err != nil {
		return Result{}, err
	}

	tags := make([]models.Tag, len(records))
	for i, rec := range records {
		if err := validation.ValidateStruct(&rec); err != nil {
			return Result{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		tags[i] = models.Tag{Name: rec.Name, Slug: rec.Slug}
	}

	n, err := imp.ImportTags(ctx, tags)
	if err != nil {
		return Result{}, fmt.Errorf("failed to import tags: %w", err)
	}
	return Result{Read: len(records), Inserted: n}, nil
}

// LoadFunc parses one fixture format and imports it.
type LoadFunc func(ctx context.Context, imp Importer, r io.Reader) (Result, error)

// LoadFile opens path and passes it to load.
func LoadFile(ctx context.Context, imp Importer, path string, load LoadFunc) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	res, err := load(ctx, imp, f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("Fixture imported", "file", path, "read", res.Read, "inserted", res.Inserted)
	return res, nil
}

// LoadDir imports ingredients.json and tags.json from dir.
func LoadDir(ctx context.Context, imp Importer, dir string) error {
	if _, err := LoadFile(ctx, imp, filepath.Join(dir, "ingredients.json"), LoadIngredients); err != nil {
		return err
	}
	_, err := LoadFile(ctx, imp, filepath.Join(dir, "tags.json"), LoadTags)
	return err
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode fixture: %w", err)
	}
	return nil
}
