// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/foodgram/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConstraint is returned for other constraint violations
	// (check constraints, dangling foreign keys).
	ErrConstraint = errors.New("constraint violation")
)

// UserStore persists user accounts and subscriptions.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetUserForViewer returns the user with IsSubscribed filled for viewerID.
	GetUserForViewer(ctx context.Context, id, viewerID int64) (*models.User, error)
	ListUsers(ctx context.Context, viewerID int64, search string, limit, offset int) ([]*models.User, int, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID int64, avatar string) error
	UpdateRole(ctx context.Context, userID int64, role string) error

	CreateSubscription(ctx context.Context, userID, authorID int64) error
	// DeleteSubscription returns ErrNotFound when the user did not follow the author.
	DeleteSubscription(ctx context.Context, userID, authorID int64) error
	ListSubscriptions(ctx context.Context, userID int64, limit, offset int) ([]*models.User, int, error)
}

// CatalogStore persists tags and ingredients.
type CatalogStore interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id int64) error

	// ListIngredients returns ingredients whose name starts with prefix
	// (case-insensitive), ordered by name.
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, ing *models.Ingredient) error
	UpdateIngredient(ctx context.Context, ing *models.Ingredient) error
	DeleteIngredient(ctx context.Context, id int64) error

	// ExistingTagIDs and ExistingIngredientIDs return the subset of ids present.
	ExistingTagIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
	ExistingIngredientIDs(ctx context.Context, ids []int64) (map[int64]bool, error)

	// ImportTags and ImportIngredients insert rows in one transaction,
	// skipping rows that conflict with existing ones. They return the
	// number of inserted rows.
	ImportTags(ctx context.Context, tags []models.Tag) (int, error)
	ImportIngredients(ctx context.Context, ings []models.Ingredient) (int, error)
}

// RecipeStore persists recipes and the per-user recipe collections.
type RecipeStore interface {
	// CreateRecipe inserts the recipe with its ingredients and tags.
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	// UpdateRecipe replaces the recipe fields, ingredients and tags.
	UpdateRecipe(ctx context.Context, recipe *models.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	// GetRecipe returns the recipe with viewer flags computed for viewerID.
	GetRecipe(ctx context.Context, id, viewerID int64) (*models.Recipe, error)
	ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, int, error)
	// ListRecipesByAuthor returns short recipes, newest first. limit <= 0 means all.
	ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]*models.Recipe, int, error)

	// AddRelation adds the recipe to the user's collection.
	// Returns ErrAlreadyExists when it is already there.
	AddRelation(ctx context.Context, rel models.RecipeRelation, userID, recipeID int64) error
	// RemoveRelation returns ErrNotFound when the recipe was not in the collection.
	RemoveRelation(ctx context.Context, rel models.RecipeRelation, userID, recipeID int64) error

	// CartContents returns every ingredient line of every recipe in the
	// user's cart and the cart recipe names ordered by name.
	CartContents(ctx context.Context, userID int64) ([]models.RecipeIngredient, []string, error)

	GetShortLinkByRecipe(ctx context.Context, recipeID int64) (*models.ShortLink, error)
	GetShortLink(ctx context.Context, code string) (*models.ShortLink, error)
	CreateShortLink(ctx context.Context, link *models.ShortLink) error
}

// TokenStore records revoked access tokens.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt int64) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpiredTokens(ctx context.Context, now int64) (int64, error)
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore
	CatalogStore
	RecipeStore
	TokenStore

	// Close releases any resources held by the store.
	Close() error
}
