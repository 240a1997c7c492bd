package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps images in a directory on disk.
type LocalStorage struct {
	root      string
	publicURL string
}

// NewLocalStorage stores files below root and builds URLs from publicURL
// (for example "http://localhost:8000/media/").
func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &LocalStorage{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/") + "/",
	}, nil
}

func (s *LocalStorage) Name() string { return "local" }

func (s *LocalStorage) Save(_ context.Context, kind Kind, img *Image) (string, error) {
	key := newKey(kind, img.Ext)
	full := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(full, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicURL + key
}

// Handler serves stored files; mount it under the URL prefix with
// http.StripPrefix.
func (s *LocalStorage) Handler() http.Handler {
	return http.FileServer(http.Dir(s.root))
}
