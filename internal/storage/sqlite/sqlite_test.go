package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username+"@example.com", username, "First", "Last", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

// seedCatalog creates two tags and three ingredients.
func seedCatalog(t *testing.T, store *SQLiteStore) ([]models.Tag, []models.Ingredient) {
	t.Helper()
	ctx := context.Background()

	tags := []models.Tag{{Name: "Breakfast", Slug: "breakfast"}, {Name: "Dinner", Slug: "dinner"}}
	for i := range tags {
		if err := store.CreateTag(ctx, &tags[i]); err != nil {
			t.Fatalf("CreateTag failed: %v", err)
		}
	}

	ings := []models.Ingredient{
		{Name: "Egg", MeasurementUnit: "pcs"},
		{Name: "Milk", MeasurementUnit: "ml"},
		{Name: "Flour", MeasurementUnit: "g"},
	}
	for i := range ings {
		if err := store.CreateIngredient(ctx, &ings[i]); err != nil {
			t.Fatalf("CreateIngredient failed: %v", err)
		}
	}
	return tags, ings
}

func mustRecipe(t *testing.T, store *SQLiteStore, author *models.User, name string, tags []models.Tag, lines ...models.RecipeIngredient) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/" + name + ".png",
		Text:        "Mix and cook.",
		CookingTime: 10,
		Ingredients: lines,
		Tags:        tags,
	}
	if err := store.CreateRecipe(context.Background(), recipe); err != nil {
		t.Fatalf("CreateRecipe(%s) failed: %v", name, err)
	}
	return recipe
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")

	t.Run("CreateUser assigns ID and defaults", func(t *testing.T) {
		if alice.ID == 0 {
			t.Error("Expected user ID to be assigned")
		}
		if alice.Role != models.RoleUser {
			t.Errorf("Role = %q, want %q", alice.Role, models.RoleUser)
		}
		if alice.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "alice2", "A", "B", "hash")
		err := store.CreateUser(ctx, dup)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("GetUserByEmail returns ErrNotFound for unknown email", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("subscriptions", func(t *testing.T) {
		if err := store.CreateSubscription(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("CreateSubscription failed: %v", err)
		}
		if err := store.CreateSubscription(ctx, alice.ID, bob.ID); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists on duplicate, got %v", err)
		}
		if err := store.CreateSubscription(ctx, alice.ID, alice.ID); !errors.Is(err, storage.ErrConstraint) {
			t.Errorf("Expected ErrConstraint on self subscription, got %v", err)
		}

		viewed, err := store.GetUserForViewer(ctx, bob.ID, alice.ID)
		if err != nil {
			t.Fatalf("GetUserForViewer failed: %v", err)
		}
		if !viewed.IsSubscribed {
			t.Error("Expected bob to be marked as subscribed for alice")
		}

		authors, total, err := store.ListSubscriptions(ctx, alice.ID, 10, 0)
		if err != nil {
			t.Fatalf("ListSubscriptions failed: %v", err)
		}
		if total != 1 || len(authors) != 1 || authors[0].ID != bob.ID {
			t.Errorf("ListSubscriptions = %d authors (total %d), want [bob]", len(authors), total)
		}

		if err := store.DeleteSubscription(ctx, alice.ID, bob.ID); err != nil {
			t.Fatalf("DeleteSubscription failed: %v", err)
		}
		if err := store.DeleteSubscription(ctx, alice.ID, bob.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ListUsers orders by username and searches", func(t *testing.T) {
		users, total, err := store.ListUsers(ctx, 0, "", 10, 0)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if total != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
			t.Errorf("Unexpected users: total=%d", total)
		}

		users, total, err = store.ListUsers(ctx, 0, "bo", 10, 0)
		if err != nil {
			t.Fatalf("ListUsers with search failed: %v", err)
		}
		if total != 1 || users[0].Username != "bob" {
			t.Errorf("Search returned total=%d", total)
		}
	})
}

func TestIngredientPrefixSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Молоко", "мука", "Mango", "salt"} {
		if err := store.CreateIngredient(ctx, &models.Ingredient{Name: name, MeasurementUnit: "g"}); err != nil {
			t.Fatalf("CreateIngredient failed: %v", err)
		}
	}

	tests := []struct {
		prefix string
		want   int
	}{
		{"м", 2},
		{"МО", 1},
		{"m", 1},
		{"%", 0},
		{"", 4},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := store.ListIngredients(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("ListIngredients failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("ListIngredients(%q) = %d results, want %d", tt.prefix, len(got), tt.want)
			}
		})
	}
}

func TestRecipes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, store, "alice")
	bob := mustUser(t, store, "bob")
	tags, ings := seedCatalog(t, store)

	pancakes := mustRecipe(t, store, alice, "Pancakes", tags[:1],
		models.RecipeIngredient{IngredientID: ings[0].ID, Amount: 2},
		models.RecipeIngredient{IngredientID: ings[1].ID, Amount: 200},
	)
	bread := mustRecipe(t, store, bob, "Bread", tags[1:],
		models.RecipeIngredient{IngredientID: ings[2].ID, Amount: 500},
		models.RecipeIngredient{IngredientID: ings[1].ID, Amount: 100},
	)

	t.Run("GetRecipe retrieves complete recipe", func(t *testing.T) {
		got, err := store.GetRecipe(ctx, pancakes.ID, 0)
		if err != nil {
			t.Fatalf("GetRecipe failed: %v", err)
		}
		if got.Author == nil || got.Author.ID != alice.ID {
			t.Errorf("Author not loaded")
		}
		if len(got.Ingredients) != 2 {
			t.Errorf("Ingredients count = %d, want 2", len(got.Ingredients))
		}
		if len(got.Tags) != 1 || got.Tags[0].Slug != "breakfast" {
			t.Errorf("Tags = %+v, want [breakfast]", got.Tags)
		}
	})

	t.Run("GetRecipe returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetRecipe(ctx, 9999, 0)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("amount below one violates constraint", func(t *testing.T) {
		bad := &models.Recipe{
			AuthorID: alice.ID, Name: "Bad", Image: "x", Text: "x", CookingTime: 1,
			Ingredients: []models.RecipeIngredient{{IngredientID: ings[0].ID, Amount: 0}},
		}
		if err := store.CreateRecipe(ctx, bad); !errors.Is(err, storage.ErrConstraint) {
			t.Errorf("Expected ErrConstraint, got %v", err)
		}
	})

	t.Run("UpdateRecipe replaces links", func(t *testing.T) {
		pancakes.Name = "Thin pancakes"
		pancakes.Ingredients = []models.RecipeIngredient{{IngredientID: ings[2].ID, Amount: 50}}
		pancakes.Tags = tags
		if err := store.UpdateRecipe(ctx, pancakes); err != nil {
			t.Fatalf("UpdateRecipe failed: %v", err)
		}
		got, err := store.GetRecipe(ctx, pancakes.ID, 0)
		if err != nil {
			t.Fatalf("GetRecipe failed: %v", err)
		}
		if got.Name != "Thin pancakes" || len(got.Ingredients) != 1 || len(got.Tags) != 2 {
			t.Errorf("Unexpected recipe after update: %+v", got)
		}
	})

	t.Run("relations and filters", func(t *testing.T) {
		if err := store.AddRelation(ctx, models.Favorites, alice.ID, bread.ID); err != nil {
			t.Fatalf("AddRelation failed: %v", err)
		}
		if err := store.AddRelation(ctx, models.Favorites, alice.ID, bread.ID); !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists, got %v", err)
		}

		favs, total, err := store.ListRecipes(ctx, models.RecipeFilter{ViewerID: alice.ID, OnlyFavorited: true, Limit: 10})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if total != 1 || favs[0].ID != bread.ID || !favs[0].IsFavorited {
			t.Errorf("Favorited filter returned %d recipes", total)
		}

		// Anonymous viewers ignore the favorited filter.
		_, total, err = store.ListRecipes(ctx, models.RecipeFilter{OnlyFavorited: true, Limit: 10})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if total != 2 {
			t.Errorf("Anonymous favorited filter total = %d, want 2", total)
		}

		byTag, total, err := store.ListRecipes(ctx, models.RecipeFilter{TagSlugs: []string{"dinner"}, Limit: 10})
		if err != nil {
			t.Fatalf("ListRecipes failed: %v", err)
		}
		if total != 2 || len(byTag) != 2 {
			t.Errorf("Tag filter total = %d, want 2", total)
		}

		if err := store.RemoveRelation(ctx, models.Favorites, bob.ID, bread.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CartContents", func(t *testing.T) {
		if err := store.AddRelation(ctx, models.ShoppingCart, bob.ID, pancakes.ID); err != nil {
			t.Fatalf("AddRelation failed: %v", err)
		}
		if err := store.AddRelation(ctx, models.ShoppingCart, bob.ID, bread.ID); err != nil {
			t.Fatalf("AddRelation failed: %v", err)
		}
		lines, names, err := store.CartContents(ctx, bob.ID)
		if err != nil {
			t.Fatalf("CartContents failed: %v", err)
		}
		if len(lines) != 3 {
			t.Errorf("lines = %d, want 3", len(lines))
		}
		if len(names) != 2 || names[0] != "Bread" {
			t.Errorf("names = %v, want [Bread Thin pancakes]", names)
		}
	})

	t.Run("short links", func(t *testing.T) {
		if err := store.CreateShortLink(ctx, &models.ShortLink{Code: "abc", RecipeID: bread.ID}); err != nil {
			t.Fatalf("CreateShortLink failed: %v", err)
		}
		err := store.CreateShortLink(ctx, &models.ShortLink{Code: "abc", RecipeID: pancakes.ID})
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("Expected ErrAlreadyExists on code collision, got %v", err)
		}
		link, err := store.GetShortLinkByRecipe(ctx, bread.ID)
		if err != nil || link.Code != "abc" {
			t.Errorf("GetShortLinkByRecipe = %+v, %v", link, err)
		}
	})

	t.Run("DeleteRecipe cascades", func(t *testing.T) {
		if err := store.DeleteRecipe(ctx, bread.ID); err != nil {
			t.Fatalf("DeleteRecipe failed: %v", err)
		}
		if _, err := store.GetShortLink(ctx, "abc"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected short link to be removed, got %v", err)
		}
		_, names, err := store.CartContents(ctx, bob.ID)
		if err != nil {
			t.Fatalf("CartContents failed: %v", err)
		}
		if len(names) != 1 {
			t.Errorf("cart recipes = %v, want only pancakes", names)
		}
	})
}

func TestImport(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tags := []models.Tag{{Name: "Lunch", Slug: "lunch"}, {Name: "Lunch", Slug: "lunch"}}
	n, err := store.ImportTags(ctx, tags)
	if err != nil {
		t.Fatalf("ImportTags failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ImportTags inserted %d, want 1", n)
	}

	ings := []models.Ingredient{{Name: "Salt", MeasurementUnit: "g"}, {Name: "Salt", MeasurementUnit: "pinch"}}
	n, err = store.ImportIngredients(ctx, ings)
	if err != nil {
		t.Fatalf("ImportIngredients failed: %v", err)
	}
	n2, err := store.ImportIngredients(ctx, ings)
	if err != nil {
		t.Fatalf("second ImportIngredients failed: %v", err)
	}
	if n != 2 || n2 != 0 {
		t.Errorf("ImportIngredients inserted %d then %d, want 2 then 0", n, n2)
	}
}

func TestRevokedTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RevokeToken(ctx, "jti-1", 100); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	revoked, err := store.IsTokenRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Errorf("IsTokenRevoked = %v, %v; want true", revoked, err)
	}

	purged, err := store.PurgeExpiredTokens(ctx, 200)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens failed: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged %d, want 1", purged)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
