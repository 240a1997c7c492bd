package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing the validated token claims.
	ClaimsKey contextKey = "claims"

	// userSinkKey points at the user ID slot of the logging middleware.
	userSinkKey contextKey = "user_sink"
)

// TokenChecker reports whether a token id has been revoked by logout.
type TokenChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserGetter loads the current state of a user account.
type UserGetter interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// GetClaims extracts the token claims from the context.
// Returns nil for anonymous requests.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// GetUserID extracts the user ID from the context.
// Returns 0 if not found.
func GetUserID(ctx context.Context) int64 {
	if claims := GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	if sink, ok := ctx.Value(userSinkKey).(*int64); ok && claims != nil {
		*sink = claims.UserID
	}
	return context.WithValue(ctx, ClaimsKey, claims)
}

func withUserSink(ctx context.Context, userID *int64) context.Context {
	return context.WithValue(ctx, userSinkKey, userID)
}

// Auth validates access tokens on incoming requests.
type Auth struct {
	jwtManager *auth.JWTManager
	tokens     TokenChecker
	users      UserGetter
}

// NewAuth creates the token middleware.
func NewAuth(jwtManager *auth.JWTManager, tokens TokenChecker, users UserGetter) *Auth {
	return &Auth{jwtManager: jwtManager, tokens: tokens, users: users}
}

// tokenFromHeader accepts both "Token <t>" and "Bearer <t>".
func tokenFromHeader(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", auth.ErrInvalidToken
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
		return parts[1], nil
	default:
		return "", auth.ErrInvalidToken
	}
}

// Validate resolves a raw Authorization header into claims, rejecting
// revoked tokens and tokens of accounts that no longer exist.
func (a *Auth) Validate(ctx context.Context, header string) (*auth.Claims, error) {
	tokenString, err := tokenFromHeader(header)
	if err != nil {
		return nil, err
	}

	claims, err := a.jwtManager.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := a.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, auth.ErrRevokedToken
	}

	if _, err := a.users.GetUserByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

// Authenticate adds the token claims to the request context when an
// Authorization header is present. Requests without the header pass
// through anonymously; a malformed, expired or revoked token is rejected
// with 401 even on public endpoints.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.Validate(r.Context(), header)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrRevokedToken) {
				writeDetail(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
				return
			}
			slog.Error("Token check failed", "error", err)
			writeDetail(w, http.StatusInternalServerError, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			writeDetail(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from users without the admin role.
// The role is read from storage so demotions apply to existing tokens.
func RequireAdmin(users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := users.GetUserByID(r.Context(), GetUserID(r.Context()))
			if err != nil || !user.IsAdmin() {
				writeDetail(w, http.StatusForbidden, "you do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
