package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/foodgram/internal/media"
	"github.com/mmynk/foodgram/internal/metrics"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/shoplist"
	"github.com/mmynk/foodgram/internal/shortlink"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/internal/validation"
)

type recipeIngredientInput struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int   `json:"amount" validate:"gte=1"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	Tags        []int64                 `json:"tags" validate:"required,min=1"`
	Image       string                  `json:"image" validate:"required"`
	Name        string                  `json:"name" validate:"required,max=256"`
	Text        string                  `json:"text" validate:"required"`
	CookingTime int                     `json:"cooking_time" validate:"gte=1"`
}

// recipeUpdateRequest replaces both lists; omitted scalar fields keep
// their current values.
type recipeUpdateRequest struct {
	Ingredients []recipeIngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	Tags        []int64                 `json:"tags" validate:"required,min=1"`
	Image       *string                 `json:"image" validate:"omitempty,min=1"`
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=256"`
	Text        *string                 `json:"text" validate:"omitempty,min=1"`
	CookingTime *int                    `json:"cooking_time" validate:"omitempty,gte=1"`
}

type shortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// duplicates returns the IDs occurring more than once, ascending.
func duplicates(ids []int64) []int64 {
	seen := make(map[int64]int, len(ids))
	var dups []int64
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i] < dups[j] })
	return dups
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// missing returns the IDs absent from found, in input order.
func missing(ids []int64, found map[int64]bool) []int64 {
	var out []int64
	for _, id := range ids {
		if !found[id] {
			out = append(out, id)
		}
	}
	return out
}

// checkRecipeLinks rejects duplicated or unknown ingredient and tag IDs.
func (s *Server) checkRecipeLinks(ctx context.Context, ingredients []recipeIngredientInput, tags []int64) error {
	ingIDs := make([]int64, len(ingredients))
	for i, ing := range ingredients {
		ingIDs[i] = ing.ID
	}

	var verr *validation.RequestValidationError
	add := func(field, msg string) {
		if verr == nil {
			verr = validation.NewFieldError(field, msg)
			return
		}
		verr.Add(field, msg)
	}

	if dups := duplicates(ingIDs); len(dups) > 0 {
		add("ingredients", "Duplicated ingredients: "+joinIDs(dups))
	}
	if dups := duplicates(tags); len(dups) > 0 {
		add("tags", "Duplicated tags: "+joinIDs(dups))
	}

	foundIngs, err := s.store.ExistingIngredientIDs(ctx, ingIDs)
	if err != nil {
		return err
	}
	if ids := missing(ingIDs, foundIngs); len(ids) > 0 {
		add("ingredients", "Ingredients do not exist: "+joinIDs(ids))
	}

	foundTags, err := s.store.ExistingTagIDs(ctx, tags)
	if err != nil {
		return err
	}
	if ids := missing(tags, foundTags); len(ids) > 0 {
		add("tags", "Tags do not exist: "+joinIDs(ids))
	}

	if verr != nil {
		return verr
	}
	return nil
}

func toRecipeLinks(ingredients []recipeIngredientInput, tags []int64) ([]models.RecipeIngredient, []models.Tag) {
	lines := make([]models.RecipeIngredient, len(ingredients))
	for i, ing := range ingredients {
		lines[i] = models.RecipeIngredient{IngredientID: ing.ID, Amount: ing.Amount}
	}
	tagRefs := make([]models.Tag, len(tags))
	for i, id := range tags {
		tagRefs[i] = models.Tag{ID: id}
	}
	return lines, tagRefs
}

// storeError turns constraint failures that slipped past validation
// (for example an ingredient deleted concurrently) into 400s.
func storeError(err error) error {
	if errors.Is(err, storage.ErrConstraint) || errors.Is(err, storage.ErrAlreadyExists) {
		return badRequest("The recipe references data that no longer exists.")
	}
	return err
}

// boolParam reads 1/true as true and 0/false as false; other values are ignored.
func boolParam(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "1", "true":
		return true
	default:
		return false
	}
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) error {
	p, err := s.parsePage(r)
	if err != nil {
		return err
	}

	filter := models.RecipeFilter{
		TagSlugs:      r.URL.Query()["tags"],
		OnlyFavorited: boolParam(r, "is_favorited"),
		OnlyInCart:    boolParam(r, "is_in_shopping_cart"),
		ViewerID:      middleware.GetUserID(r.Context()),
		Limit:         p.limit,
		Offset:        p.offset(),
	}
	if raw := r.URL.Query().Get("author"); raw != "" {
		if filter.AuthorID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return fieldError("author", "A valid integer is required.")
		}
	}

	recipes, total, err := s.store.ListRecipes(r.Context(), filter)
	if err != nil {
		return err
	}
	resp, err := s.paginated(r, p, total, s.toRecipes(recipes))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	recipe, err := s.store.GetRecipe(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.toRecipe(recipe))
	return nil
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) error {
	var req recipeRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := s.checkRecipeLinks(r.Context(), req.Ingredients, req.Tags); err != nil {
		return err
	}

	image, err := s.saveImage(r, "image", req.Image, media.KindRecipe)
	if err != nil {
		return err
	}

	viewerID := middleware.GetUserID(r.Context())
	lines, tags := toRecipeLinks(req.Ingredients, req.Tags)
	recipe := &models.Recipe{
		AuthorID:    viewerID,
		Name:        req.Name,
		Image:       image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: lines,
		Tags:        tags,
	}
	if err := s.store.CreateRecipe(r.Context(), recipe); err != nil {
		media.DeleteQuietly(r.Context(), s.media, image)
		return storeError(err)
	}
	metrics.RecipesCreated.Inc()
	s.logger.Info("Recipe created", "recipe_id", recipe.ID, "author_id", viewerID)

	created, err := s.store.GetRecipe(r.Context(), recipe.ID, viewerID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, s.toRecipe(created))
	return nil
}

// editableRecipe loads the recipe and checks that the viewer is its
// author or an admin.
func (s *Server) editableRecipe(r *http.Request) (*models.Recipe, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	viewerID := middleware.GetUserID(r.Context())

	recipe, err := s.store.GetRecipe(r.Context(), id, viewerID)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID == viewerID {
		return recipe, nil
	}

	viewer, err := s.store.GetUserByID(r.Context(), viewerID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() {
		return nil, forbidden()
	}
	return recipe, nil
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) error {
	recipe, err := s.editableRecipe(r)
	if err != nil {
		return err
	}

	var req recipeUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := s.checkRecipeLinks(r.Context(), req.Ingredients, req.Tags); err != nil {
		return err
	}

	if req.Name != nil {
		recipe.Name = *req.Name
	}
	if req.Text != nil {
		recipe.Text = *req.Text
	}
	if req.CookingTime != nil {
		recipe.CookingTime = *req.CookingTime
	}
	recipe.Ingredients, recipe.Tags = toRecipeLinks(req.Ingredients, req.Tags)

	oldImage := ""
	if req.Image != nil {
		image, err := s.saveImage(r, "image", *req.Image, media.KindRecipe)
		if err != nil {
			return err
		}
		oldImage, recipe.Image = recipe.Image, image
	}

	if err := s.store.UpdateRecipe(r.Context(), recipe); err != nil {
		if oldImage != "" {
			media.DeleteQuietly(r.Context(), s.media, recipe.Image)
		}
		return storeError(err)
	}
	media.DeleteQuietly(r.Context(), s.media, oldImage)
	s.logger.Info("Recipe updated", "recipe_id", recipe.ID, "user_id", middleware.GetUserID(r.Context()))

	updated, err := s.store.GetRecipe(r.Context(), recipe.ID, middleware.GetUserID(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.toRecipe(updated))
	return nil
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) error {
	recipe, err := s.editableRecipe(r)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(r.Context(), recipe.ID); err != nil {
		return err
	}
	media.DeleteQuietly(r.Context(), s.media, recipe.Image)
	s.logger.Info("Recipe deleted", "recipe_id", recipe.ID, "user_id", middleware.GetUserID(r.Context()))
	return noContent(w)
}

// relationMessages holds the 400 texts for one recipe collection.
var relationMessages = map[models.RecipeRelation][2]string{
	models.Favorites:    {"Recipe is already in favorites.", "Recipe is not in favorites."},
	models.ShoppingCart: {"Recipe is already in the shopping cart.", "Recipe is not in the shopping cart."},
}

func (s *Server) addRelation(rel models.RecipeRelation) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		userID := middleware.GetUserID(r.Context())

		recipe, err := s.store.GetRecipe(r.Context(), id, userID)
		if err != nil {
			return err
		}
		if err := s.store.AddRelation(r.Context(), rel, userID, id); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return badRequest(relationMessages[rel][0])
			}
			return err
		}
		metrics.RecordRelation(string(rel), true)
		s.logger.Info("Recipe added", "relation", rel, "recipe_id", id, "user_id", userID)

		respondJSON(w, http.StatusCreated, s.toShortRecipe(recipe))
		return nil
	}
}

func (s *Server) removeRelation(rel models.RecipeRelation) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		userID := middleware.GetUserID(r.Context())

		if _, err := s.store.GetRecipe(r.Context(), id, userID); err != nil {
			return err
		}
		if err := s.store.RemoveRelation(r.Context(), rel, userID, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return badRequest(relationMessages[rel][1])
			}
			return err
		}
		metrics.RecordRelation(string(rel), false)
		return noContent(w)
	}
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) error {
	return s.addRelation(models.Favorites)(w, r)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) error {
	return s.removeRelation(models.Favorites)(w, r)
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) error {
	return s.addRelation(models.ShoppingCart)(w, r)
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) error {
	return s.removeRelation(models.ShoppingCart)(w, r)
}

// downloadShoppingCart renders the aggregated ingredients of every recipe
// in the viewer's cart as a text attachment.
func (s *Server) downloadShoppingCart(w http.ResponseWriter, r *http.Request) error {
	userID := middleware.GetUserID(r.Context())
	lines, recipes, err := s.store.CartContents(r.Context(), userID)
	if err != nil {
		return err
	}
	if len(recipes) == 0 {
		return &apiError{status: http.StatusNotFound, body: detail("Shopping cart is empty.")}
	}

	now := s.opts.Now()
	body := shoplist.Render(now, shoplist.Aggregate(lines), recipes)
	metrics.ShoppingListDownloads.Inc()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, shoplist.FileName(now)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write([]byte(body))
	return err
}

// getShortLink returns the recipe's short link, creating it on first use.
func (s *Server) getShortLink(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if _, err := s.store.GetRecipe(r.Context(), id, 0); err != nil {
		return err
	}

	link, err := s.ensureShortLink(r.Context(), id)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, shortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s/", s.opts.BaseURL, link.Code),
	})
	return nil
}

func (s *Server) ensureShortLink(ctx context.Context, recipeID int64) (*models.ShortLink, error) {
	for attempt := 0; attempt < shortlink.MaxAttempts; attempt++ {
		link, err := s.store.GetShortLinkByRecipe(ctx, recipeID)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}

		code, err := shortlink.Generate()
		if err != nil {
			return nil, err
		}
		link = &models.ShortLink{Code: code, RecipeID: recipeID}
		err = s.store.CreateShortLink(ctx, link)
		if err == nil {
			return link, nil
		}
		// A unique violation is either a code collision or a concurrent
		// request that linked the recipe first; the next pass sorts it out.
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Warn("Short link collision", "recipe_id", recipeID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("failed to allocate short link for recipe %d after %d attempts", recipeID, shortlink.MaxAttempts)
}

func (s *Server) redirectShortLink(w http.ResponseWriter, r *http.Request) error {
	code := chi.URLParam(r, "code")
	if !shortlink.Valid(code) {
		return notFound()
	}
	link, err := s.store.GetShortLink(r.Context(), code)
	if err != nil {
		return err
	}
	http.Redirect(w, r, fmt.Sprintf("/recipes/%d/", link.RecipeID), http.StatusFound)
	return nil
}
