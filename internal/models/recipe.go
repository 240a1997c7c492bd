package models

// Tag labels recipes (e.g. "breakfast").
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Ingredient is a product with its unit of measure.
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}

// RecipeIngredient is an ingredient used by a recipe with its amount.
type RecipeIngredient struct {
	IngredientID    int64
	Name            string
	MeasurementUnit string
	Amount          int
}

// Recipe represents a published recipe.
type Recipe struct {
	// ID is the unique identifier for the recipe.
	ID int64

	// AuthorID references the user who published the recipe.
	AuthorID int64

	// Author is filled on reads; nil on writes.
	Author *User

	Name string

	// Image is the media path of the dish photo.
	Image string

	Text string

	// CookingTime is measured in minutes and is at least 1.
	CookingTime int

	Ingredients []RecipeIngredient
	Tags        []Tag

	// PubDate is the Unix timestamp (nanoseconds) of publication.
	// Recipes are listed newest first.
	PubDate int64

	// Viewer-dependent flags, populated by viewer-aware queries.
	IsFavorited    bool
	IsInCart       bool
	FavoritesCount int
}

// RecipeRelation selects one of the per-user recipe collections.
type RecipeRelation string

const (
	// Favorites is the set of recipes a user marked as favorite.
	Favorites RecipeRelation = "favorites"
	// ShoppingCart is the set of recipes a user plans to cook.
	ShoppingCart RecipeRelation = "shopping_cart"
)

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	AuthorID int64
	// TagSlugs matches recipes having any of the slugs.
	TagSlugs []string
	// OnlyFavorited and OnlyInCart apply to ViewerID and are ignored
	// when ViewerID is zero.
	OnlyFavorited bool
	OnlyInCart    bool
	// Search is a case-insensitive substring match on the name.
	Search string

	ViewerID int64
	Limit    int
	Offset   int
}

// ShortLink maps a random code to a recipe.
type ShortLink struct {
	Code     string
	RecipeID int64
}
