package service

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

type tagRequest struct {
	Name string `json:"name" validate:"required,max=32"`
	Slug string `json:"slug" validate:"required,max=32,slug"`
}

type tagPatchRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=32"`
	Slug *string `json:"slug" validate:"omitempty,min=1,max=32,slug"`
}

type ingredientRequest struct {
	Name            string `json:"name" validate:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type ingredientPatchRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=128"`
	MeasurementUnit *string `json:"measurement_unit" validate:"omitempty,min=1,max=64"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// adminListRecipes lists recipes with their favorites count. It filters
// by name substring, author ID and tag slug.
func (s *Server) adminListRecipes(w http.ResponseWriter, r *http.Request) error {
	p, err := s.parsePage(r)
	if err != nil {
		return err
	}

	q := r.URL.Query()
	filter := models.RecipeFilter{
		Search: q.Get("search"),
		Limit:  p.limit,
		Offset: p.offset(),
	}
	if tag := q.Get("tag"); tag != "" {
		filter.TagSlugs = []string{tag}
	}
	if raw := q.Get("author"); raw != "" {
		if filter.AuthorID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return fieldError("author", "A valid integer is required.")
		}
	}

	recipes, total, err := s.store.ListRecipes(r.Context(), filter)
	if err != nil {
		return err
	}
	results := make([]adminRecipeResponse, len(recipes))
	for i, recipe := range recipes {
		results[i] = adminRecipeResponse{
			ID:             recipe.ID,
			Name:           recipe.Name,
			FavoritesCount: recipe.FavoritesCount,
		}
		if recipe.Author != nil {
			results[i].Author = recipe.Author.Username
		}
	}

	resp, err := s.paginated(r, p, total, results)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

// uniqueError maps a unique violation to a 400 on field.
func uniqueError(err error, field, msg string) error {
	if errors.Is(err, storage.ErrAlreadyExists) {
		return fieldError(field, msg)
	}
	return err
}

func (s *Server) adminCreateTag(w http.ResponseWriter, r *http.Request) error {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	tag := &models.Tag{Name: req.Name, Slug: req.Slug}
	if err := s.store.CreateTag(r.Context(), tag); err != nil {
		return uniqueError(err, "slug", "Tag with this name or slug already exists.")
	}
	s.logger.Info("Tag created", "tag_id", tag.ID, "slug", tag.Slug, "admin_id", middleware.GetUserID(r.Context()))
	respondJSON(w, http.StatusCreated, toTag(*tag))
	return nil
}

func (s *Server) adminUpdateTag(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	tag, err := s.store.GetTag(r.Context(), id)
	if err != nil {
		return err
	}

	var req tagPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name != nil {
		tag.Name = *req.Name
	}
	if req.Slug != nil {
		tag.Slug = *req.Slug
	}
	if err := s.store.UpdateTag(r.Context(), tag); err != nil {
		return uniqueError(err, "slug", "Tag with this name or slug already exists.")
	}
	respondJSON(w, http.StatusOK, toTag(*tag))
	return nil
}

func (s *Server) adminDeleteTag(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteTag(r.Context(), id); err != nil {
		return err
	}
	s.logger.Info("Tag deleted", "tag_id", id, "admin_id", middleware.GetUserID(r.Context()))
	return noContent(w)
}

func (s *Server) adminCreateIngredient(w http.ResponseWriter, r *http.Request) error {
	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	ing := &models.Ingredient{Name: req.Name, MeasurementUnit: req.MeasurementUnit}
	if err := s.store.CreateIngredient(r.Context(), ing); err != nil {
		return uniqueError(err, "name", "Ingredient with this name and unit already exists.")
	}
	s.logger.Info("Ingredient created", "ingredient_id", ing.ID, "admin_id", middleware.GetUserID(r.Context()))
	respondJSON(w, http.StatusCreated, toIngredient(*ing))
	return nil
}

func (s *Server) adminUpdateIngredient(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	ing, err := s.store.GetIngredient(r.Context(), id)
	if err != nil {
		return err
	}

	var req ingredientPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name != nil {
		ing.Name = *req.Name
	}
	if req.MeasurementUnit != nil {
		ing.MeasurementUnit = *req.MeasurementUnit
	}
	if err := s.store.UpdateIngredient(r.Context(), ing); err != nil {
		return uniqueError(err, "name", "Ingredient with this name and unit already exists.")
	}
	respondJSON(w, http.StatusOK, toIngredient(*ing))
	return nil
}

func (s *Server) adminDeleteIngredient(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteIngredient(r.Context(), id); err != nil {
		return err
	}
	s.logger.Info("Ingredient deleted", "ingredient_id", id, "admin_id", middleware.GetUserID(r.Context()))
	return noContent(w)
}

func (s *Server) adminListUsers(w http.ResponseWriter, r *http.Request) error {
	p, err := s.parsePage(r)
	if err != nil {
		return err
	}
	users, total, err := s.store.ListUsers(r.Context(), 0, r.URL.Query().Get("search"), p.limit, p.offset())
	if err != nil {
		return err
	}
	results := make([]adminUserResponse, len(users))
	for i, u := range users {
		results[i] = toAdminUser(u)
	}
	resp, err := s.paginated(r, p, total, results)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

// adminUpdateUser changes a user's role. Admins cannot demote themselves.
func (s *Server) adminUpdateUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		return err
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	adminID := middleware.GetUserID(r.Context())
	if user.ID == adminID && req.Role != models.RoleAdmin {
		return fieldError("role", "You cannot remove your own admin role.")
	}

	if err := s.store.UpdateRole(r.Context(), user.ID, req.Role); err != nil {
		return err
	}
	user.Role = req.Role
	s.logger.Info("User role changed", "user_id", user.ID, "role", user.Role, "admin_id", adminID)
	respondJSON(w, http.StatusOK, toAdminUser(user))
	return nil
}
