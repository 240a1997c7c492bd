package service

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/media"
	"github.com/mmynk/foodgram/internal/metrics"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

type signUpRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type avatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

// signUp registers a new account.
func (s *Server) signUp(w http.ResponseWriter, r *http.Request) error {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := s.authenticator.Register(r.Context(), auth.Registration{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, req.Password)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return fieldError("email", err.Error())
	case errors.Is(err, auth.ErrUsernameExists):
		return fieldError("username", err.Error())
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrLongPassword):
		return fieldError("password", err.Error())
	case err != nil:
		return err
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	respondJSON(w, http.StatusCreated, createdUserResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
	return nil
}

// listUsers returns a page of users ordered by username.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) error {
	p, err := s.parsePage(r)
	if err != nil {
		return err
	}

	users, total, err := s.store.ListUsers(r.Context(), middleware.GetUserID(r.Context()), "", p.limit, p.offset())
	if err != nil {
		return err
	}

	results := make([]*userResponse, len(users))
	for i, u := range users {
		results[i] = s.toUser(u)
	}
	resp, err := s.paginated(r, p, total, results)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	user, err := s.store.GetUserForViewer(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.toUser(user))
	return nil
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	user, err := s.store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, s.toUser(user))
	return nil
}

func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) error {
	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	userID := middleware.GetUserID(r.Context())
	err := s.authenticator.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		return fieldError("current_password", err.Error())
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrLongPassword):
		return fieldError("new_password", err.Error())
	case err != nil:
		return err
	}

	s.logger.Info("Password changed", "user_id", userID)
	return noContent(w)
}

// saveImage decodes a data URL and stores it, reporting decode failures
// against field.
func (s *Server) saveImage(r *http.Request, field, dataURL string, kind media.Kind) (string, error) {
	img, err := media.DecodeDataURL(dataURL)
	if err != nil {
		return "", fieldError(field, err.Error())
	}
	key, err := s.media.Save(r.Context(), kind, img)
	if err != nil {
		return "", err
	}
	metrics.MediaUploads.WithLabelValues(string(kind), s.media.Name()).Inc()
	return key, nil
}

func (s *Server) setAvatar(w http.ResponseWriter, r *http.Request) error {
	var req avatarRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	userID := middleware.GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		return err
	}

	key, err := s.saveImage(r, "avatar", req.Avatar, media.KindAvatar)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAvatar(r.Context(), userID, key); err != nil {
		media.DeleteQuietly(r.Context(), s.media, key)
		return err
	}
	media.DeleteQuietly(r.Context(), s.media, user.Avatar)

	respondJSON(w, http.StatusOK, avatarResponse{Avatar: s.media.URL(key)})
	return nil
}

func (s *Server) deleteAvatar(w http.ResponseWriter, r *http.Request) error {
	userID := middleware.GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAvatar(r.Context(), userID, ""); err != nil {
		return err
	}
	media.DeleteQuietly(r.Context(), s.media, user.Avatar)
	return noContent(w)
}

// recipesLimit parses the recipes_limit query parameter; -1 means no limit.
func recipesLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fieldError("recipes_limit", "A valid non-negative integer is required.")
	}
	return n, nil
}

// authorWithRecipes loads the recipe preview shown for a followed author.
// limit < 0 lists every recipe; limit == 0 only counts them.
func (s *Server) authorWithRecipes(r *http.Request, author *models.User, limit int) (*subscriptionResponse, error) {
	fetch := limit
	if limit == 0 {
		fetch = 1
	}
	recipes, total, err := s.store.ListRecipesByAuthor(r.Context(), author.ID, fetch)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		recipes = nil
	}

	short := make([]shortRecipeResponse, len(recipes))
	for i, recipe := range recipes {
		short[i] = s.toShortRecipe(recipe)
	}
	return &subscriptionResponse{
		userResponse: *s.toUser(author),
		Recipes:      short,
		RecipesCount: total,
	}, nil
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) error {
	limit, err := recipesLimit(r)
	if err != nil {
		return err
	}
	p, err := s.parsePage(r)
	if err != nil {
		return err
	}

	authors, total, err := s.store.ListSubscriptions(r.Context(), middleware.GetUserID(r.Context()), p.limit, p.offset())
	if err != nil {
		return err
	}

	results := make([]*subscriptionResponse, len(authors))
	for i, author := range authors {
		if results[i], err = s.authorWithRecipes(r, author, limit); err != nil {
			return err
		}
	}
	resp, err := s.paginated(r, p, total, results)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) error {
	limit, err := recipesLimit(r)
	if err != nil {
		return err
	}
	authorID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	userID := middleware.GetUserID(r.Context())

	author, err := s.store.GetUserByID(r.Context(), authorID)
	if err != nil {
		return err
	}
	if authorID == userID {
		return badRequest("You cannot subscribe to yourself.")
	}

	if err := s.store.CreateSubscription(r.Context(), userID, authorID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return badRequest("You are already subscribed to this user.")
		}
		return err
	}
	metrics.RecordSubscription(true)
	s.logger.Info("Subscribed", "user_id", userID, "author_id", authorID)

	author.IsSubscribed = true
	resp, err := s.authorWithRecipes(r, author, limit)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, resp)
	return nil
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) error {
	authorID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	userID := middleware.GetUserID(r.Context())

	if _, err := s.store.GetUserByID(r.Context(), authorID); err != nil {
		return err
	}
	if err := s.store.DeleteSubscription(r.Context(), userID, authorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return badRequest("You are not subscribed to this user.")
		}
		return err
	}
	metrics.RecordSubscription(false)
	s.logger.Info("Unsubscribed", "user_id", userID, "author_id", authorID)
	return noContent(w)
}
