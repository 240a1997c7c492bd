package middleware

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

type fakeTokens struct {
	revoked map[string]bool
}

func (f *fakeTokens) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	return f.revoked[id], nil
}

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	return user, nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	if GetUserID(r.Context()) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	tokens := &fakeTokens{revoked: map[string]bool{}}
	users := fakeUsers{7: {ID: 7, Role: models.RoleUser}}
	mw := NewAuth(jwtManager, tokens, users)

	token, err := jwtManager.Generate(&models.User{ID: 7, Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	deletedToken, err := jwtManager.Generate(&models.User{ID: 8, Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	claims, _ := jwtManager.Validate(token)

	handler := mw.Authenticate(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusNoContent},
		{"token scheme", "Token " + token, http.StatusOK},
		{"bearer scheme", "Bearer " + token, http.StatusOK},
		{"unknown scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Token abc", http.StatusUnauthorized},
		{"deleted user", "Token " + deletedToken, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("revoked", func(t *testing.T) {
		tokens.revoked[claims.ID] = true
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: 3}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleAdmin},
		2: {ID: 2, Role: models.RoleUser},
	}
	handler := RequireAdmin(users)(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		userID int64
		want   int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"admin", 1, http.StatusOK},
		{"regular user", 2, http.StatusForbidden},
		{"deleted user", 3, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != 0 {
				req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: tt.userID}))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoggingCapturesUser(t *testing.T) {
	var seen int64
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClaims(r.Context(), &auth.Claims{UserID: 9})
		seen = GetUserID(ctx)
		w.WriteHeader(http.StatusTeapot)
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rec := httptest.NewRecorder()
	Logging(logger)(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if seen != 9 {
		t.Errorf("user id = %d, want 9", seen)
	}
	out := buf.String()
	for _, want := range []string{"HTTP request rejected", "user_id=9", "status=418", "path=/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
