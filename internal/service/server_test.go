package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/media"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
)

// pngDataURL is a 1x1 transparent PNG.
const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

var testNow = time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

// testEnv is a full API stack backed by a temporary database and media dir.
type testEnv struct {
	t       *testing.T
	store   *sqlite.SQLiteStore
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	mediaStore, err := media.NewLocalStorage(filepath.Join(dir, "media"), "http://testserver/media/")
	require.NoError(t, err)

	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := New(store, authenticator, jwtManager, mediaStore, Options{
		BaseURL:           "http://testserver",
		DefaultPageSize:   6,
		MaxPageSize:       100,
		CORSOrigins:       []string{"*"},
		RateLimitDisabled: true,
		MediaPrefix:       "/media/",
		MediaHandler:      mediaStore.Handler(),
		Now:               func() time.Time { return testNow },
	}, logger)

	return &testEnv{t: t, store: store, handler: api.Routes()}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals the response body into a generic JSON value.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type jsonObject = map[string]any

// signUp registers a user and logs them in, returning the ID and token.
func (e *testEnv) signUp(username string) (int64, string) {
	e.t.Helper()

	email := username + "@example.com"
	rec := e.do(http.MethodPost, "/api/users/", "", jsonObject{
		"email":      email,
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "s3cret-pass",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decode[jsonObject](e.t, rec)["id"].(float64))

	rec = e.do(http.MethodPost, "/api/auth/token/login/", "", jsonObject{
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	return id, decode[jsonObject](e.t, rec)["auth_token"].(string)
}

func (e *testEnv) makeAdmin(userID int64) {
	e.t.Helper()
	require.NoError(e.t, e.store.UpdateRole(context.Background(), userID, models.RoleAdmin))
}

func (e *testEnv) tag(name, slug string) int64 {
	e.t.Helper()
	tag := &models.Tag{Name: name, Slug: slug}
	require.NoError(e.t, e.store.CreateTag(context.Background(), tag))
	return tag.ID
}

func (e *testEnv) ingredient(name, unit string) int64 {
	e.t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(e.t, e.store.CreateIngredient(context.Background(), ing))
	return ing.ID
}

// recipeBody builds a create request; amounts maps ingredient ID to amount.
func recipeBody(name string, tags []int64, amounts map[int64]int) jsonObject {
	ings := make([]jsonObject, 0, len(amounts))
	for id, amount := range amounts {
		ings = append(ings, jsonObject{"id": id, "amount": amount})
	}
	return jsonObject{
		"name":         name,
		"text":         "Mix and cook.",
		"cooking_time": 10,
		"image":        pngDataURL,
		"tags":         tags,
		"ingredients":  ings,
	}
}

func (e *testEnv) createRecipe(token string, body jsonObject) int64 {
	e.t.Helper()
	rec := e.do(http.MethodPost, "/api/recipes/", token, body)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[jsonObject](e.t, rec)["id"].(float64))
}

func recipePath(id int64, suffix string) string {
	return fmt.Sprintf("/api/recipes/%d/%s", id, suffix)
}
