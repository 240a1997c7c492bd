package media

import (
	"context"
	"log/slog"
	"path"

	"github.com/google/uuid"
)

// Storage persists images.
type Storage interface {
	// Save stores img under kind and returns its key.
	Save(ctx context.Context, kind Kind, img *Image) (string, error)
	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key, or "" for an empty key.
	URL(key string) string
	// Name identifies the backend in logs and metrics.
	Name() string
}

func newKey(kind Kind, ext string) string {
	return path.Join(string(kind), uuid.NewString()+"."+ext)
}

// DeleteQuietly removes key and logs instead of failing. It is used when
// an image is replaced and the old object is no longer referenced.
func DeleteQuietly(ctx context.Context, s Storage, key string) {
	if key == "" {
		return
	}
	if err := s.Delete(ctx, key); err != nil {
		slog.Warn("Failed to delete media object", "backend", s.Name(), "key", key, "error", err)
	}
}
