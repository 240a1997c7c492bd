package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
)

func newAuthenticator(t *testing.T) *PasswordAuthenticator {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
}

func TestPasswordAuthenticator(t *testing.T) {
	a := newAuthenticator(t)
	ctx := context.Background()

	reg := Registration{Email: "cook@example.com", Username: "cook", FirstName: "Ann", LastName: "Cook"}
	user, err := a.Register(ctx, reg, "s3cret-pass")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == 0 || user.PasswordHash == "s3cret-pass" {
		t.Fatalf("Unexpected user after register: %+v", user)
	}

	t.Run("duplicate email", func(t *testing.T) {
		dup := reg
		dup.Username = "other"
		if _, err := a.Register(ctx, dup, "pw"); !errors.Is(err, ErrEmailExists) {
			t.Errorf("Expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := reg
		dup.Email = "other@example.com"
		if _, err := a.Register(ctx, dup, "pw"); !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Expected ErrUsernameExists, got %v", err)
		}
	})

	t.Run("password limits", func(t *testing.T) {
		if err := a.ValidateCredential(""); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Expected ErrWeakPassword, got %v", err)
		}
		if err := a.ValidateCredential(strings.Repeat("x", MaxPasswordLength+1)); !errors.Is(err, ErrLongPassword) {
			t.Errorf("Expected ErrLongPassword, got %v", err)
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		got, err := a.Authenticate(ctx, reg.Email, "s3cret-pass")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if got.ID != user.ID {
			t.Errorf("Authenticated user %d, want %d", got.ID, user.ID)
		}
		if _, err := a.Authenticate(ctx, reg.Email, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
		if _, err := a.Authenticate(ctx, "ghost@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
		}
	})

	t.Run("change password", func(t *testing.T) {
		if err := a.ChangePassword(ctx, user.ID, "wrong", "new-pass"); !errors.Is(err, ErrWrongPassword) {
			t.Errorf("Expected ErrWrongPassword, got %v", err)
		}
		if err := a.ChangePassword(ctx, user.ID, "s3cret-pass", "new-pass"); err != nil {
			t.Fatalf("ChangePassword failed: %v", err)
		}
		if _, err := a.Authenticate(ctx, reg.Email, "new-pass"); err != nil {
			t.Errorf("Authenticate with new password failed: %v", err)
		}
	})
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: 42, Email: "cook@example.com", Role: models.RoleAdmin}

	token, err := m.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != 42 || claims.Role != models.RoleAdmin {
		t.Errorf("Unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("Expected a token id")
	}

	t.Run("token ids are unique", func(t *testing.T) {
		other, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		otherClaims, err := m.Validate(other)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if otherClaims.ID == claims.ID {
			t.Error("Expected different token ids")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewJWTManager("test-secret", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := expired.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := m.Validate(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Expected ErrInvalidToken, got %v", err)
		}
	})
}
