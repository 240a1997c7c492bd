package service

import (
	"errors"
	"net/http"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/metrics"
	"github.com/mmynk/foodgram/internal/middleware"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// login exchanges credentials for an access token.
func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	s.logger.Info("Login request", "email", req.Email)

	user, err := s.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		metrics.RecordLogin(false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("Login failed", "email", req.Email)
			return fieldError("non_field_errors", "Unable to log in with provided credentials.")
		}
		return err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return err
	}

	metrics.RecordLogin(true)
	s.logger.Info("User logged in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, tokenResponse{AuthToken: token})
	return nil
}

// logout revokes the token the request was made with.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) error {
	claims := middleware.GetClaims(r.Context())

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}
	if err := s.store.RevokeToken(r.Context(), claims.ID, expiresAt); err != nil {
		return err
	}

	s.logger.Info("User logged out", "user_id", claims.UserID)
	return noContent(w)
}
