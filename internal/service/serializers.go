package service

import (
	"github.com/mmynk/foodgram/internal/models"
)

type userResponse struct {
	Email        string  `json:"email"`
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

type createdUserResponse struct {
	Email     string `json:"email"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ingredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeResponse struct {
	ID          int64                      `json:"id"`
	Tags        []tagResponse              `json:"tags"`
	Author      *userResponse              `json:"author"`
	Ingredients []recipeIngredientResponse `json:"ingredients"`
	IsFavorited bool                       `json:"is_favorited"`
	IsInCart    bool                       `json:"is_in_shopping_cart"`
	Name        string                     `json:"name"`
	Image       string                     `json:"image"`
	Text        string                     `json:"text"`
	CookingTime int                        `json:"cooking_time"`
}

type shortRecipeResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionResponse struct {
	userResponse
	Recipes      []shortRecipeResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

type adminRecipeResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Author         string `json:"author"`
	FavoritesCount int    `json:"favorites_count"`
}

type adminUserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (s *Server) toUser(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	resp := &userResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: u.IsSubscribed,
	}
	if u.Avatar != "" {
		avatar := s.media.URL(u.Avatar)
		resp.Avatar = &avatar
	}
	return resp
}

func toTag(t models.Tag) tagResponse {
	return tagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func toTags(tags []models.Tag) []tagResponse {
	out := make([]tagResponse, len(tags))
	for i, t := range tags {
		out[i] = toTag(t)
	}
	return out
}

func toIngredient(i models.Ingredient) ingredientResponse {
	return ingredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func (s *Server) toRecipe(r *models.Recipe) *recipeResponse {
	ings := make([]recipeIngredientResponse, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ings[i] = recipeIngredientResponse{
			ID:              ing.IngredientID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          ing.Amount,
		}
	}
	return &recipeResponse{
		ID:          r.ID,
		Tags:        toTags(r.Tags),
		Author:      s.toUser(r.Author),
		Ingredients: ings,
		IsFavorited: r.IsFavorited,
		IsInCart:    r.IsInCart,
		Name:        r.Name,
		Image:       s.media.URL(r.Image),
		Text:        r.Text,
		CookingTime: r.CookingTime,
	}
}

func (s *Server) toRecipes(recipes []*models.Recipe) []*recipeResponse {
	out := make([]*recipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = s.toRecipe(r)
	}
	return out
}

func (s *Server) toShortRecipe(r *models.Recipe) shortRecipeResponse {
	return shortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       s.media.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

func toAdminUser(u *models.User) adminUserResponse {
	return adminUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}
